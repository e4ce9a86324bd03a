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

package internal

import (
	_ "github.com/noctarius/tablestream/internal/forwarders/awssqs"
	_ "github.com/noctarius/tablestream/internal/forwarders/redis"
	_ "github.com/noctarius/tablestream/internal/forwarders/stdout"
	_ "github.com/noctarius/tablestream/internal/transports/kafka"
	_ "github.com/noctarius/tablestream/internal/transports/nats"

	"github.com/noctarius/tablestream/internal/logging"
	"github.com/noctarius/tablestream/internal/stats"
	"github.com/noctarius/tablestream/internal/streaming"
	spiconfig "github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/forwarder"
	"github.com/noctarius/tablestream/spi/transport"
	"github.com/noctarius/tablestream/spi/wiring"
)

var staticModule = wiring.DefineModule(
	"Static", func(module wiring.Module) {
		module.Provide(stats.NewStatsService)
		module.Provide(streaming.NewClient)
	},
)

var dynamicModule = wiring.DefineModule(
	"Dynamic", func(module wiring.Module) {
		module.Provide(func(c *spiconfig.Config) (transport.Transport, error) {
			name := spiconfig.GetOrDefault(c, spiconfig.PropertyTransport, spiconfig.NATS)
			return transport.NewTransport(name, c)
		})

		module.Provide(func(
			c *spiconfig.Config, client *streaming.Client,
		) ([]forwarder.Forwarder, error) {

			types := c.Forwarders.Types
			if len(types) == 0 {
				types = []spiconfig.ForwarderType{spiconfig.Stdout}
			}

			forwarders := make([]forwarder.Forwarder, 0, len(types))
			for _, name := range types {
				f, err := forwarder.NewForwarder(name, c, client)
				if err != nil {
					return nil, err
				}
				forwarders = append(forwarders, f)
			}
			return forwarders, nil
		})
	},
)

// Streamer assembles the feed pipeline from its configuration: the
// transport consuming the upstream feed, the streaming client ordering
// and conflating it, and the forwarders publishing the result.
type Streamer struct {
	statsService *stats.Service
	client       *streaming.Client
	forwarders   []forwarder.Forwarder
	logger       *logging.Logger
}

func NewStreamer(
	config *spiconfig.Config,
) (*Streamer, error) {

	logger, err := logging.NewLogger("Streamer")
	if err != nil {
		return nil, err
	}

	configModule := wiring.DefineModule(
		"Configuration", func(module wiring.Module) {
			module.Provide(func() *spiconfig.Config {
				return config
			})
		},
	)

	container, err := wiring.NewContainer(configModule, staticModule, dynamicModule)
	if err != nil {
		return nil, err
	}

	var statsService *stats.Service
	if err := container.Service(&statsService); err != nil {
		return nil, err
	}

	var client *streaming.Client
	if err := container.Service(&client); err != nil {
		return nil, err
	}

	var forwarders []forwarder.Forwarder
	if err := container.Service(&forwarders); err != nil {
		return nil, err
	}

	return &Streamer{
		statsService: statsService,
		client:       client,
		forwarders:   forwarders,
		logger:       logger,
	}, nil
}

func (s *Streamer) Start() error {
	if err := s.statsService.Start(); err != nil {
		return err
	}

	if err := s.client.Connect(); err != nil {
		return err
	}

	for _, f := range s.forwarders {
		if err := f.Start(); err != nil {
			return err
		}
	}

	s.logger.Infof("started with %d forwarder(s)", len(s.forwarders))
	return nil
}

func (s *Streamer) Stop() error {
	errs := make([]error, 0)
	for _, f := range s.forwarders {
		if err := f.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.client.Disconnect(); err != nil {
		errs = append(errs, err)
	}

	if err := s.statsService.Stop(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
