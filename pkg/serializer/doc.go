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

// Package serializer writes documents as JSON, YAML or aligned tables.
//
// Writers target a stream, a file, or a Kubernetes ConfigMap when the output
// path has the form cm://namespace/name:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer serializer.CloseIfPossible(w)
//	if err := w.Serialize(ctx, view); err != nil {
//		return err
//	}
//
// Values implementing Tabular choose their own table columns; anything
// else is flattened into dotted FIELD/VALUE rows.
//
// For HTTP handlers, Respond negotiates the format from the request and
// RespondJSON always writes JSON. Both buffer the encoding so a failure
// never leaves a partial response.
package serializer
