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

package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noctarius/tablestream/internal/supporting"
	"github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
)

func Test_RowFilter_Accepts_Everything_Without_Definitions(t *testing.T) {
	filter, err := NewRowFilter(nil)
	require.NoError(t, err)

	success, err := filter.Evaluate(stream.Record{"id": "a"})
	require.NoError(t, err)
	assert.True(t, success)
}

func Test_RowFilter_Simple_Condition(t *testing.T) {
	filter, err := NewRowFilter(map[string]config.RowFilterConfig{
		"prices": {
			Condition: `row.price > 100`,
		},
	})
	require.NoError(t, err)

	success, err := filter.Evaluate(stream.Record{"id": "a", "price": 150})
	require.NoError(t, err)
	assert.True(t, success)

	success, err = filter.Evaluate(stream.Record{"id": "b", "price": 50})
	require.NoError(t, err)
	assert.False(t, success)
}

func Test_RowFilter_Inverted_Default(t *testing.T) {
	filter, err := NewRowFilter(map[string]config.RowFilterConfig{
		"blocked": {
			Condition:    `row.region == "test"`,
			DefaultValue: supporting.AddrOf(false),
		},
	})
	require.NoError(t, err)

	success, err := filter.Evaluate(stream.Record{"id": "a", "region": "test"})
	require.NoError(t, err)
	assert.False(t, success)

	success, err = filter.Evaluate(stream.Record{"id": "b", "region": "prod"})
	require.NoError(t, err)
	assert.True(t, success)
}

func Test_RowFilter_Composite_All_Must_Pass(t *testing.T) {
	filter, err := NewRowFilter(map[string]config.RowFilterConfig{
		"prices": {
			Condition: `row.price > 100`,
		},
		"regions": {
			Condition: `row.region == "prod"`,
		},
	})
	require.NoError(t, err)

	success, err := filter.Evaluate(stream.Record{"price": 150, "region": "prod"})
	require.NoError(t, err)
	assert.True(t, success)

	success, err = filter.Evaluate(stream.Record{"price": 150, "region": "test"})
	require.NoError(t, err)
	assert.False(t, success)
}

func Test_RowFilter_Invalid_Condition(t *testing.T) {
	_, err := NewRowFilter(map[string]config.RowFilterConfig{
		"broken": {
			Condition: `row.price >`,
		},
	})
	assert.Error(t, err)
}

func Test_RowFilter_Non_Boolean_Result(t *testing.T) {
	filter, err := NewRowFilter(map[string]config.RowFilterConfig{
		"broken": {
			Condition: `row.price`,
		},
	})
	require.NoError(t, err)

	_, err = filter.Evaluate(stream.Record{"price": 150})
	assert.Error(t, err)
}
