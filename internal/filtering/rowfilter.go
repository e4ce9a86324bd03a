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
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-errors/errors"

	"github.com/noctarius/tablestream/spi/config"
	"github.com/noctarius/tablestream/spi/stream"
)

type RowFilter interface {
	Evaluate(record stream.Record) (bool, error)
}

type rowFilterFunc func(record stream.Record) (bool, error)

func (rff rowFilterFunc) Evaluate(record stream.Record) (bool, error) {
	return rff(record)
}

func NewRowFilter(
	filterDefinitions map[string]config.RowFilterConfig,
) (RowFilter, error) {

	if filterDefinitions == nil {
		return acceptAllFilter, nil
	}

	filters := make([]*rowFilter, 0)
	for _, def := range filterDefinitions {
		defaultValue := true
		if def.DefaultValue != nil {
			defaultValue = *def.DefaultValue
		}

		prog, err := expr.Compile(def.Condition)
		if err != nil {
			return nil, err
		}

		filters = append(filters, &rowFilter{
			defaultValue: defaultValue,
			condition:    def.Condition,
			prog:         prog,
			vm:           &vm.VM{},
		})
	}
	return compositeFilter(filters), nil
}

var acceptAllFilter rowFilterFunc = func(_ stream.Record) (bool, error) {
	return true, nil
}

var compositeFilter = func(filters []*rowFilter) RowFilter {
	return rowFilterFunc(func(record stream.Record) (bool, error) {
		for _, filter := range filters {
			success, err := filter.evaluate(record)
			if err != nil {
				return false, err
			}
			if !success {
				return false, nil
			}
		}
		return true, nil
	})
}

type rowFilter struct {
	defaultValue bool
	condition    string
	prog         *vm.Program
	vm           *vm.VM
}

func (f *rowFilter) evaluate(record stream.Record) (bool, error) {
	env := map[string]stream.Record{
		"row": record,
	}

	result, err := f.vm.Run(f.prog, env)
	if err != nil {
		return false, err
	}

	r, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("result of filter «%s» isn't a boolean", f.condition)
	}

	if r {
		return f.defaultValue, nil
	}
	return !f.defaultValue, nil
}
