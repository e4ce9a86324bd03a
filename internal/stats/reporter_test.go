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

package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noctarius/tablestream/internal/supporting"
	spiconfig "github.com/noctarius/tablestream/spi/config"
)

func Test_Reporter_Disabled_Is_Noop(t *testing.T) {
	service := NewStatsService(&spiconfig.Config{
		Stats: spiconfig.StatsConfig{
			Enabled: supporting.AddrOf(false),
			Runtime: supporting.AddrOf(false),
		},
	})

	reporter := service.NewReporter("test")
	assert.NotPanics(t, func() {
		reporter.Incr("errors")
		reporter.Add("messages.processed", 10)
		reporter.Set("queue.fill.percentage", 42.0)
		reporter.Observe("drain.cycle.time", time.Millisecond*5)
	})
}

func Test_Reporter_Enabled_Reports(t *testing.T) {
	service := NewStatsService(&spiconfig.Config{
		Stats: spiconfig.StatsConfig{
			Enabled: supporting.AddrOf(true),
			Runtime: supporting.AddrOf(false),
		},
	})

	reporter := service.NewReporter("test")
	assert.NotPanics(t, func() {
		reporter.Incr("errors")
		reporter.Add("messages.processed", 10)
		reporter.Set("queue.fill.percentage", 42.0)
		reporter.Observe("drain.cycle.time", time.Millisecond*5)
	})
}
