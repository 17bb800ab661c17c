// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forensicanalysis/eztimeline/config"
)

func TestValidate(t *testing.T) {
	valid := config.Upload{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "cases"}
	tests := []struct {
		name    string
		mutate  func(*config.Upload)
		wantErr bool
	}{
		{"valid", func(*config.Upload) {}, false},
		{"no endpoint", func(u *config.Upload) { u.Endpoint = " " }, true},
		{"scheme", func(u *config.Upload) { u.Endpoint = "http://localhost:9000" }, true},
		{"no secret", func(u *config.Upload) { u.SecretKey = "" }, true},
		{"no bucket", func(u *config.Upload) { u.Bucket = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	store, err := New(config.Upload{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "cases"})
	assert.NoError(t, err)
	assert.Equal(t, defaultRegion, store.region)
	assert.Equal(t, "cases", store.bucket)

	_, err = New(config.Upload{})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"run/Summary_Report.csv", "run/Summary_Report.csv"},
		{"/run//Tool_Outputs/a.csv", "run/Tool_Outputs/a.csv"},
		{`run\Tool_Outputs\a.csv`, "run/Tool_Outputs/a.csv"},
		{"../x", "x"},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.in))
		})
	}
}
