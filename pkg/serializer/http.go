// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// MaxRequestBody caps decoded request bodies.
const MaxRequestBody = 1 << 20

var contentTypes = map[Format]string{
	FormatJSON:  "application/json",
	FormatYAML:  "application/yaml",
	FormatTable: "text/plain; charset=utf-8",
}

// RespondJSON writes a JSON response with the given status code and data.
// It buffers the JSON encoding before writing headers to prevent partial responses.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	respond(w, FormatJSON, statusCode, data)
}

// Respond writes data in the format asked for by r: the format query
// parameter first, then a YAML or plain text Accept header. JSON otherwise.
func Respond(w http.ResponseWriter, r *http.Request, statusCode int, data any) {
	respond(w, NegotiateFormat(r), statusCode, data)
}

// NegotiateFormat picks the response format of r.
func NegotiateFormat(r *http.Request) Format {
	if q := r.URL.Query().Get("format"); q != "" {
		if f := Format(strings.ToLower(q)); !f.IsUnknown() {
			return f
		}
	}
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "yaml"):
		return FormatYAML
	case strings.HasPrefix(accept, "text/plain"):
		return FormatTable
	default:
		return FormatJSON
	}
}

func respond(w http.ResponseWriter, f Format, statusCode int, data any) {
	var body []byte
	var err error
	if f == FormatJSON {
		buf := &bytes.Buffer{}
		err = json.NewEncoder(buf).Encode(data)
		body = buf.Bytes()
	} else {
		body, err = Marshal(f, data)
	}
	if err != nil {
		slog.Error("response encoding failed", "format", f, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypes[f])
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		// Connection is broken, log but can't recover
		slog.Warn("response write failed", "error", err)
	}
}

// ReadJSON decodes the JSON body of r into v. Unknown fields and trailing
// data are rejected and the body is capped at MaxRequestBody.
func ReadJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid request body: unexpected trailing data")
	}
	return nil
}
