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

// Package catalog 管理可檢驗模型的設定來源。
//
// 設定檔必須放在扁平的 fs.FS 中（不可有子目錄），檔名在所有來源間唯一。
package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/spec"
)

var (
	ErrDupID   = errs.NewFatal("duplicate model id")
	ErrDupName = errs.NewFatal("duplicate model name")
)

// Entry 一個已註冊模型：編號、名稱（小寫）、設定檔名。
type Entry struct {
	MID        spec.MID
	Name       string
	ConfigName string
}

// Summary 對外列表用。
type Summary struct {
	MID       spec.MID      `json:"mid"       yaml:"mid"`
	Name      string        `json:"name"      yaml:"name"`
	Logic     spec.LogicKey `json:"logic"     yaml:"logic"`
	Mode      string        `json:"mode"      yaml:"mode"`
	Direction string        `json:"direction" yaml:"direction"`
	StepBound *int          `json:"step_bound,omitempty" yaml:"step_bound,omitempty"`
}

type Catalog struct {
	byID   map[spec.MID]Entry
	byName map[string]Entry
	ids    []spec.MID          // 穩定排序
	unique map[string]struct{} // 一個模型一個設定檔
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	mfs, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[spec.MID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]spec.MID, 0, 32),
		unique: map[string]struct{}{},
		config: mfs,
	}, nil
}

// Register 全部檢查通過才一次寫入；任何一筆失敗則都不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[spec.MID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("model name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.Fatalf("config file not found: %s", meta.ConfigName)
		}
		if _, ok := c.byID[meta.MID]; ok {
			return ErrDupID
		}
		if _, ok := seenID[meta.MID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		_, used := c.unique[meta.ConfigName]
		_, seen := seenCfg[meta.ConfigName]
		if used || seen {
			return errs.Fatalf("duplicate config name: %s", meta.ConfigName)
		}
		seenID[meta.MID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.MID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.MID)
	}
	slices.Sort(c.ids)
	return nil
}

func (c *Catalog) GetByID(id spec.MID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

func (c *Catalog) IDs() []spec.MID {
	if len(c.ids) == 0 {
		return nil
	}
	return slices.Clone(c.ids)
}

// All 依 MID 遞增。
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// ModelSettingByID 讀取並初始化設定。
func (c *Catalog) ModelSettingByID(id spec.MID) (*spec.ModelSetting, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.Warnf("model id %d does not exist in catalog", id)
	}
	return c.load(e)
}

func (c *Catalog) ModelSettingByName(name string) (*spec.ModelSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("model name %q does not exist in catalog", name)
	}
	return c.load(e)
}

func (c *Catalog) load(e Entry) (*spec.ModelSetting, error) {
	src, ok := c.config.GetFS(e.ConfigName)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, e.ConfigName)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return ParseModelSetting(e.ConfigName, raw)
}

// ParseModelSetting 依副檔名選擇 YAML 或 JSON。
func ParseModelSetting(filename string, raw []byte) (*spec.ModelSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return spec.GetModelSettingByYAML(raw)
	case ".json":
		return spec.GetModelSettingByJSON(raw)
	default:
		return nil, errs.Fatalf("unsupported config format: %q", filename)
	}
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func isConfigFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 只能是 basename
	if strings.ContainsAny(file, `/\:`) {
		return errs.Fatalf("invalid config filename: %q (must be a basename; no / \\ :)", file)
	}
	if !isConfigFile(file) {
		return errs.Fatalf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file)
	}
	if strings.HasPrefix(file, ".") {
		return errs.Fatalf("invalid config filename: %q (cannot start with '.')", file)
	}
	return nil
}

// ============================================================
// ** multiFS **
// ============================================================

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.Fatalf("fs[%d] is nil", i)
		}
	}
	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}
	for i := range src {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.Fatalf("config FS must be flat (no subdirectories): %q", path)
			}
			if !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Fatalf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], true
	}
	return nil, false
}

// Names 所有設定檔名（遞增）。
func (m *multiFS) Names() []string {
	out := make([]string, 0, len(m.index))
	for name := range m.index {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Sources 唯讀走訪用。
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return slices.Clone(m.src)
}

func (s Summary) String() string {
	return fmt.Sprintf("%d %s (%s, %s)", s.MID, s.Name, s.Logic, s.Direction)
}
