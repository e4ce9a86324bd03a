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

package kafka

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/noctarius/tablestream/internal/logging"
	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/encoding"
	"github.com/noctarius/tablestream/spi/stream"
	"github.com/noctarius/tablestream/spi/transport"
	"github.com/noctarius/tablestream/spi/version"
)

func init() {
	transport.RegisterTransport(spiconfig.Kafka, newKafkaTransport)
}

const (
	headerMessageType = "type"

	messageTypeBatch            = "batch"
	messageTypeStatus           = "status"
	messageTypeSnapshotComplete = "snapshot-complete"
	messageTypeRefreshStarted   = "refresh-started"
	messageTypeRefreshComplete  = "refresh-complete"
)

type kafkaTransport struct {
	mutex sync.Mutex

	brokers      []string
	group        string
	feedTopic    string
	controlTopic string
	saramaConfig *sarama.Config

	consumerGroup sarama.ConsumerGroup
	producer      sarama.SyncProducer
	cancelConsume context.CancelFunc

	encoder *encoding.JsonEncoder
	decoder *encoding.JsonDecoder

	handlers transport.EventHandlers

	logger *logging.Logger
}

func newKafkaTransport(
	config *spiconfig.Config,
) (transport.Transport, error) {

	c := sarama.NewConfig()
	c.ClientID = version.BinName
	c.Consumer.Return.Errors = true
	c.Consumer.Offsets.Initial = sarama.OffsetNewest
	c.Producer.Return.Successes = true
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Retry.Max = 10

	if spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaSaslEnabled, false) {
		c.Net.SASL.Enable = true
		c.Net.SASL.User = spiconfig.GetOrDefault(
			config, spiconfig.PropertyKafkaSaslUser, "",
		)
		c.Net.SASL.Password = spiconfig.GetOrDefault(
			config, spiconfig.PropertyKafkaSaslPassword, "",
		)
		c.Net.SASL.Mechanism = spiconfig.GetOrDefault[sarama.SASLMechanism](
			config, spiconfig.PropertyKafkaSaslMechanism, sarama.SASLTypePlaintext,
		)
	}

	if spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaTlsEnabled, false) {
		c.Net.TLS.Enable = true
		c.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: spiconfig.GetOrDefault(
				config, spiconfig.PropertyKafkaTlsSkipVerify, false,
			),
			ClientAuth: spiconfig.GetOrDefault(
				config, spiconfig.PropertyKafkaTlsClientAuth, tls.NoClientCert,
			),
		}
	}

	logger, err := logging.NewLogger("KafkaTransport")
	if err != nil {
		return nil, err
	}

	return &kafkaTransport{
		brokers:      spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaBrokers, []string{"localhost:9092"}),
		group:        spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaGroup, version.BinName),
		feedTopic:    spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaFeedTopic, "tablestream.feed"),
		controlTopic: spiconfig.GetOrDefault(config, spiconfig.PropertyKafkaControlTopic, "tablestream.control"),
		saramaConfig: c,
		encoder:      encoding.NewJsonEncoderWithConfig(config),
		decoder:      encoding.NewJsonDecoderWithConfig(config),
		logger:       logger,
	}, nil
}

func (kt *kafkaTransport) Connect() error {
	producer, err := sarama.NewSyncProducer(kt.brokers, kt.saramaConfig)
	if err != nil {
		return stream.NewTransportError(err, "creating control producer")
	}

	consumerGroup, err := sarama.NewConsumerGroup(kt.brokers, kt.group, kt.saramaConfig)
	if err != nil {
		_ = producer.Close()
		return stream.NewTransportError(err, "creating consumer group %s", kt.group)
	}

	ctx, cancel := context.WithCancel(context.Background())

	kt.mutex.Lock()
	kt.producer = producer
	kt.consumerGroup = consumerGroup
	kt.cancelConsume = cancel
	kt.mutex.Unlock()

	go func() {
		for {
			if err := consumerGroup.Consume(ctx, []string{kt.feedTopic}, kt); err != nil {
				kt.logger.Errorf("consuming %s failed: %s", kt.feedTopic, err.Error())
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(time.Second)
		}
	}()

	kt.logger.Infof("consuming feed topic %s as group %s", kt.feedTopic, kt.group)
	return nil
}

func (kt *kafkaTransport) Close() error {
	kt.mutex.Lock()
	cancel := kt.cancelConsume
	consumerGroup := kt.consumerGroup
	producer := kt.producer
	kt.cancelConsume = nil
	kt.consumerGroup = nil
	kt.producer = nil
	kt.mutex.Unlock()

	if cancel != nil {
		cancel()
	}
	if consumerGroup != nil {
		if err := consumerGroup.Close(); err != nil {
			return stream.NewTransportError(err, "closing consumer group")
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			return stream.NewTransportError(err, "closing control producer")
		}
	}
	return nil
}

func (kt *kafkaTransport) AttachEventHandlers(
	handlers transport.EventHandlers,
) {

	kt.mutex.Lock()
	defer kt.mutex.Unlock()
	kt.handlers = handlers
}

func (kt *kafkaTransport) DetachEventHandlers() {
	kt.mutex.Lock()
	defer kt.mutex.Unlock()
	kt.handlers = transport.EventHandlers{}
}

func (kt *kafkaTransport) RequestSnapshot() error {
	return kt.publishControl(encoding.ControlEnvelope{
		Action: encoding.ControlActionSnapshot,
	})
}

func (kt *kafkaTransport) RequestRefresh() error {
	return kt.publishControl(encoding.ControlEnvelope{
		Action: encoding.ControlActionRefresh,
	})
}

func (kt *kafkaTransport) Setup(
	_ sarama.ConsumerGroupSession,
) error {

	return nil
}

func (kt *kafkaTransport) Cleanup(
	_ sarama.ConsumerGroupSession,
) error {

	return nil
}

func (kt *kafkaTransport) ConsumeClaim(
	session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim,
) error {

	for message := range claim.Messages() {
		kt.dispatch(message)
		session.MarkMessage(message, "")
	}
	return nil
}

func (kt *kafkaTransport) publishControl(
	envelope encoding.ControlEnvelope,
) error {

	kt.mutex.Lock()
	producer := kt.producer
	kt.mutex.Unlock()
	if producer == nil {
		return stream.NewTransportError(nil, "not connected")
	}

	data, err := kt.encoder.Marshal(envelope)
	if err != nil {
		return err
	}

	_, _, err = producer.SendMessage(&sarama.ProducerMessage{
		Topic:     kt.controlTopic,
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	})
	if err != nil {
		return stream.NewTransportError(err, "publishing control request to %s", kt.controlTopic)
	}
	return nil
}

func (kt *kafkaTransport) dispatch(
	message *sarama.ConsumerMessage,
) {

	handlers := kt.currentHandlers()

	switch messageType(message) {
	case messageTypeBatch:
		if handlers.OnBatch == nil {
			return
		}
		envelope := encoding.FeedEnvelope{}
		if err := kt.decoder.Unmarshal(message.Value, &envelope); err != nil {
			kt.logger.Errorf("dropping undecodable feed batch: %s", err.Error())
			return
		}
		handlers.OnBatch(envelope.Sequence, envelope.Records, envelope.Metadata)

	case messageTypeStatus:
		if handlers.OnConnectionStatus != nil {
			handlers.OnConnectionStatus(stream.ConnectionStatus(message.Value))
		}

	case messageTypeSnapshotComplete:
		if handlers.OnSnapshotComplete == nil {
			return
		}
		envelope := encoding.ControlEnvelope{}
		if err := kt.decoder.Unmarshal(message.Value, &envelope); err != nil {
			kt.logger.Errorf("dropping undecodable snapshot completion: %s", err.Error())
			return
		}
		totalRows := 0
		if envelope.TotalRows != nil {
			totalRows = *envelope.TotalRows
		}
		handlers.OnSnapshotComplete(totalRows)

	case messageTypeRefreshStarted:
		if handlers.OnRefreshStarted != nil {
			handlers.OnRefreshStarted()
		}

	case messageTypeRefreshComplete:
		if handlers.OnRefreshComplete != nil {
			handlers.OnRefreshComplete()
		}

	default:
		kt.logger.Warnf("dropping message without usable %s header", headerMessageType)
	}
}

func (kt *kafkaTransport) currentHandlers() transport.EventHandlers {
	kt.mutex.Lock()
	defer kt.mutex.Unlock()
	return kt.handlers
}

func messageType(
	message *sarama.ConsumerMessage,
) string {

	for _, header := range message.Headers {
		if string(header.Key) == headerMessageType {
			return string(header.Value)
		}
	}
	// Untyped messages default to feed batches
	return messageTypeBatch
}
