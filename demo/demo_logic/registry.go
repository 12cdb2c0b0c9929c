// Copyright 2025 Zintix Labs
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

// Package demo_logic 示範用的 Go 生成器，以 init() 註冊到 Logics。
package demo_logic

import "github.com/zintix-labs/petlab/sdk/logic"

// Logics 本套件所有生成器的註冊表。
var Logics = logic.NewRegistry()
