// Copyright 2025 Specware Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOf(t *testing.T) {
	s := SetOf("if", "else", "endif", "else")
	assert.Len(t, s, 3)
	assert.True(t, s.Contains("if"))
	assert.True(t, s.Contains("else"))
	assert.False(t, s.Contains("define"))
}

func TestSetAdd(t *testing.T) {
	s := SetOf(1, 2)
	s.Add(3).Add(3)
	assert.Len(t, s, 3)
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
}
