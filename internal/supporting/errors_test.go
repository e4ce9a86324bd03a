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

package supporting

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

func Test_AdaptError(t *testing.T) {
	assert.Nil(t, AdaptError(nil, 1))

	adapted := AdaptError(errors.Errorf("boom"), 3)
	assert.Equal(t, 3, adapted.ExitCode())
	assert.Equal(t, "boom", adapted.Error())

	// Already adapted errors pass through unchanged
	exitError := cli.NewExitError("done", 7)
	assert.Same(t, exitError, AdaptError(exitError, 3))
}

func Test_AdaptErrorWithMessage(t *testing.T) {
	assert.Nil(t, AdaptErrorWithMessage(nil, "context", 1))

	adapted := AdaptErrorWithMessage(errors.Errorf("boom"), "context", 4)
	assert.Equal(t, 4, adapted.ExitCode())
	assert.Equal(t, "context => err: boom", adapted.Error())

	exitError := cli.NewExitError("done", 7)
	assert.Same(t, exitError, AdaptErrorWithMessage(exitError, "context", 4))
}
