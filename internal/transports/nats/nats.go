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

package nats

import (
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"

	"github.com/noctarius/tablestream/internal/logging"
	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/encoding"
	"github.com/noctarius/tablestream/spi/stream"
	"github.com/noctarius/tablestream/spi/transport"
	"github.com/noctarius/tablestream/spi/version"
)

func init() {
	transport.RegisterTransport(spiconfig.NATS, newNatsTransport)
}

const (
	subjectFeedBatch        = "%s.feed.batch"
	subjectFeedStatus       = "%s.feed.status"
	subjectSnapshotComplete = "%s.feed.snapshot.complete"
	subjectRefreshStarted   = "%s.feed.refresh.started"
	subjectRefreshComplete  = "%s.feed.refresh.complete"
	subjectControl          = "%s.control"
)

type natsTransport struct {
	mutex sync.Mutex

	address       string
	subjectPrefix string
	options       []nats.Option

	conn          *nats.Conn
	subscriptions []*nats.Subscription

	encoder *encoding.JsonEncoder
	decoder *encoding.JsonDecoder

	handlers transport.EventHandlers

	logger *logging.Logger
}

func newNatsTransport(
	config *spiconfig.Config,
) (transport.Transport, error) {

	address := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsAddress, "nats://localhost:4222")
	subjectPrefix := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsSubjectPrefix, "tablestream")
	authorization := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsAuthorization, "userinfo")

	var authOption nats.Option
	switch spiconfig.NatsAuthorizationType(authorization) {
	case spiconfig.UserInfo:
		username := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsUserinfoUsername, "")
		password := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsUserinfoPassword, "")
		authOption = nats.UserInfo(username, password)
	case spiconfig.Credentials:
		certificate := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsCredentialsCertificate, "")
		seeds := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsCredentialsSeeds, []string{})
		authOption = nats.UserCredentials(certificate, seeds...)
	case spiconfig.Jwt:
		jwt := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsJwt, "")
		seed := spiconfig.GetOrDefault(config, spiconfig.PropertyNatsJwtSeed, "")
		authOption = nats.UserJWTAndSeed(jwt, seed)
	default:
		return nil, fmt.Errorf("NATS AuthorizationType '%s' doesn't exist", authorization)
	}

	logger, err := logging.NewLogger("NatsTransport")
	if err != nil {
		return nil, err
	}

	return &natsTransport{
		address:       address,
		subjectPrefix: subjectPrefix,
		options: []nats.Option{
			authOption,
			nats.Name(version.BinName),
			nats.RetryOnFailedConnect(true),
			nats.ReconnectWait(time.Second * 10),
			nats.ReconnectBufSize(1024 * 1024),
			nats.MaxReconnects(-1),
		},
		encoder: encoding.NewJsonEncoderWithConfig(config),
		decoder: encoding.NewJsonDecoderWithConfig(config),
		logger:  logger,
	}, nil
}

func (nt *natsTransport) Connect() error {
	connector := func() error {
		conn, err := nats.Connect(nt.address, nt.options...)
		if err != nil {
			nt.logger.Warnf("connecting to NATS at %s failed: %s", nt.address, err.Error())
			return err
		}
		nt.mutex.Lock()
		nt.conn = conn
		nt.mutex.Unlock()
		return nil
	}

	retryPolicy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(connector, retryPolicy); err != nil {
		return stream.NewTransportError(err, "connecting to NATS at %s", nt.address)
	}

	if err := nt.subscribeAll(); err != nil {
		return err
	}
	nt.logger.Infof("connected to NATS at %s", nt.address)
	return nil
}

func (nt *natsTransport) Close() error {
	nt.mutex.Lock()
	conn := nt.conn
	subscriptions := nt.subscriptions
	nt.conn = nil
	nt.subscriptions = nil
	nt.mutex.Unlock()

	if conn == nil {
		return nil
	}
	for _, subscription := range subscriptions {
		_ = subscription.Unsubscribe()
	}
	conn.Close()
	return nil
}

func (nt *natsTransport) AttachEventHandlers(
	handlers transport.EventHandlers,
) {

	nt.mutex.Lock()
	defer nt.mutex.Unlock()
	nt.handlers = handlers
}

func (nt *natsTransport) DetachEventHandlers() {
	nt.mutex.Lock()
	defer nt.mutex.Unlock()
	nt.handlers = transport.EventHandlers{}
}

func (nt *natsTransport) RequestSnapshot() error {
	return nt.publishControl(encoding.ControlEnvelope{
		Action: encoding.ControlActionSnapshot,
	})
}

func (nt *natsTransport) RequestRefresh() error {
	return nt.publishControl(encoding.ControlEnvelope{
		Action: encoding.ControlActionRefresh,
	})
}

func (nt *natsTransport) publishControl(
	envelope encoding.ControlEnvelope,
) error {

	nt.mutex.Lock()
	conn := nt.conn
	nt.mutex.Unlock()
	if conn == nil {
		return stream.NewTransportError(nil, "not connected")
	}

	data, err := nt.encoder.Marshal(envelope)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf(subjectControl, nt.subjectPrefix)
	if err := conn.Publish(subject, data); err != nil {
		return stream.NewTransportError(err, "publishing to %s", subject)
	}
	return nil
}

func (nt *natsTransport) subscribeAll() error {
	subscribers := map[string]nats.MsgHandler{
		fmt.Sprintf(subjectFeedBatch, nt.subjectPrefix):        nt.onBatchMsg,
		fmt.Sprintf(subjectFeedStatus, nt.subjectPrefix):       nt.onStatusMsg,
		fmt.Sprintf(subjectSnapshotComplete, nt.subjectPrefix): nt.onSnapshotCompleteMsg,
		fmt.Sprintf(subjectRefreshStarted, nt.subjectPrefix):   nt.onRefreshStartedMsg,
		fmt.Sprintf(subjectRefreshComplete, nt.subjectPrefix):  nt.onRefreshCompleteMsg,
	}

	nt.mutex.Lock()
	defer nt.mutex.Unlock()
	for subject, handler := range subscribers {
		subscription, err := nt.conn.Subscribe(subject, handler)
		if err != nil {
			return stream.NewTransportError(err, "subscribing to %s", subject)
		}
		nt.subscriptions = append(nt.subscriptions, subscription)
	}
	return nil
}

func (nt *natsTransport) onBatchMsg(
	msg *nats.Msg,
) {

	handlers := nt.currentHandlers()
	if handlers.OnBatch == nil {
		return
	}

	envelope := encoding.FeedEnvelope{}
	if err := nt.decoder.Unmarshal(msg.Data, &envelope); err != nil {
		nt.logger.Errorf("dropping undecodable feed batch: %s", err.Error())
		return
	}
	handlers.OnBatch(envelope.Sequence, envelope.Records, envelope.Metadata)
}

func (nt *natsTransport) onStatusMsg(
	msg *nats.Msg,
) {

	handlers := nt.currentHandlers()
	if handlers.OnConnectionStatus == nil {
		return
	}
	handlers.OnConnectionStatus(stream.ConnectionStatus(msg.Data))
}

func (nt *natsTransport) onSnapshotCompleteMsg(
	msg *nats.Msg,
) {

	handlers := nt.currentHandlers()
	if handlers.OnSnapshotComplete == nil {
		return
	}

	envelope := encoding.ControlEnvelope{}
	if err := nt.decoder.Unmarshal(msg.Data, &envelope); err != nil {
		nt.logger.Errorf("dropping undecodable snapshot completion: %s", err.Error())
		return
	}
	totalRows := 0
	if envelope.TotalRows != nil {
		totalRows = *envelope.TotalRows
	}
	handlers.OnSnapshotComplete(totalRows)
}

func (nt *natsTransport) onRefreshStartedMsg(
	_ *nats.Msg,
) {

	handlers := nt.currentHandlers()
	if handlers.OnRefreshStarted != nil {
		handlers.OnRefreshStarted()
	}
}

func (nt *natsTransport) onRefreshCompleteMsg(
	_ *nats.Msg,
) {

	handlers := nt.currentHandlers()
	if handlers.OnRefreshComplete != nil {
		handlers.OnRefreshComplete()
	}
}

func (nt *natsTransport) currentHandlers() transport.EventHandlers {
	nt.mutex.Lock()
	defer nt.mutex.Unlock()
	return nt.handlers
}
