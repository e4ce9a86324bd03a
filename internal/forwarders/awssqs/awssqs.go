/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package awssqs

import (
	"crypto/sha256"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/go-errors/errors"

	"github.com/noctarius/tablestream/internal/logging"
	config "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/encoding"
	"github.com/noctarius/tablestream/spi/forwarder"
	"github.com/noctarius/tablestream/spi/stream"
)

func init() {
	forwarder.RegisterForwarder(config.AwsSQS, newAwsSqsForwarder)
}

type awsSqsForwarder struct {
	queueUrl *string
	awsSqs   *sqs.SQS
	pipeline forwarder.Pipeline
	encoder  *encoding.JsonEncoder
	tokens   []string
	logger   *logging.Logger
}

func newAwsSqsForwarder(
	c *config.Config, pipeline forwarder.Pipeline,
) (forwarder.Forwarder, error) {

	queueUrl := config.GetOrDefault[*string](c, config.PropertySqsQueueUrl, nil)
	if queueUrl == nil {
		return nil, errors.Errorf("AWS SQS forwarder needs the queue url to be configured")
	}

	awsRegion := config.GetOrDefault[*string](c, config.PropertySqsAwsRegion, nil)
	endpoint := config.GetOrDefault(c, config.PropertySqsAwsEndpoint, "")
	accessKeyId := config.GetOrDefault[*string](c, config.PropertySqsAwsAccessKeyId, nil)
	secretAccessKey := config.GetOrDefault[*string](c, config.PropertySqsAwsSecretAccessKey, nil)
	sessionToken := config.GetOrDefault[*string](c, config.PropertySqsAwsSessionToken, nil)

	awsConfig := aws.NewConfig().WithEndpoint(endpoint)
	if accessKeyId != nil && secretAccessKey != nil && sessionToken != nil {
		awsConfig = awsConfig.WithCredentials(
			credentials.NewStaticCredentials(*accessKeyId, *secretAccessKey, *sessionToken),
		)
	}

	if awsRegion != nil {
		awsConfig = awsConfig.WithRegion(*awsRegion)
	}

	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger("AwsSqsForwarder")
	if err != nil {
		return nil, err
	}

	return &awsSqsForwarder{
		queueUrl: queueUrl,
		awsSqs:   sqs.New(awsSession),
		pipeline: pipeline,
		encoder:  encoding.NewJsonEncoderWithConfig(c),
		logger:   logger,
	}, nil
}

func (a *awsSqsForwarder) Start() error {
	token, err := a.pipeline.OnData(a.onData)
	if err != nil {
		return err
	}
	a.tokens = append(a.tokens, token)
	return nil
}

func (a *awsSqsForwarder) Stop() error {
	for _, token := range a.tokens {
		a.pipeline.Unsubscribe(token)
	}
	a.tokens = nil
	return nil
}

func (a *awsSqsForwarder) onData(
	records []stream.Record, metadata stream.Metadata,
) {

	envelopeData, err := a.encoder.Marshal(encoding.FeedEnvelope{
		Records:  records,
		Metadata: metadata,
	})
	if err != nil {
		a.logger.Errorf("marshalling batch failed: %s", err.Error())
		return
	}

	var msgDeduplicationIdContent string
	if metadata.Timestamp != nil {
		msgDeduplicationIdContent = fmt.Sprintf("%d-%s", *metadata.Timestamp, envelopeData)
	} else {
		msgDeduplicationIdContent = string(envelopeData)
	}

	hash := sha256.New()
	hash.Write([]byte(msgDeduplicationIdContent))
	msgDeduplicationId := fmt.Sprintf("%X", hash.Sum(nil))

	groupId := "realtime"
	if metadata.IsSnapshot {
		groupId = "snapshot"
	}

	if _, err := a.awsSqs.SendMessage(&sqs.SendMessageInput{
		DelaySeconds:           aws.Int64(0),
		MessageBody:            aws.String(string(envelopeData)),
		MessageGroupId:         aws.String(groupId),
		MessageDeduplicationId: aws.String(msgDeduplicationId),
		QueueUrl:               a.queueUrl,
	}); err != nil {
		a.logger.Errorf("forwarding batch to SQS failed: %s", err.Error())
	}
}
