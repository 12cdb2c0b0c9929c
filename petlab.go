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

// Package petlab 提供可達性檢驗引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// Petlab 把三個必需的地基組裝在一起，並提供建立 Checker / Simulator 的入口：
//  1. Catalog：模型目錄，定義有哪些模型、各自對應的設定檔名稱（ConfigName）。
//  2. Logic Registry：生成器註冊表，依據設定（LogicKey）建出狀態生成器；explicit 模型為內建。
//  3. PRNGFactory：亂數核心工廠，保證取樣可重現。
//
// 設定檔來源一律以 fs.FS 注入，Petlab 本身不綁定任何檔案路徑。
package petlab

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/petlab/catalog"
	"github.com/zintix-labs/petlab/errs"
	"github.com/zintix-labs/petlab/sdk/core"
	"github.com/zintix-labs/petlab/sdk/logic"
	"github.com/zintix-labs/petlab/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數。
//
// 可以用 go:embed 把設定編進 binary，也可以用 os.DirFS 在本機讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Logics 把一或多個生成器註冊表打包成 New() 需要的參數；重複的 LogicKey 直接失敗。
func Logics(regs ...*logic.Registry) []*logic.Registry {
	return regs
}

// Petlab 組裝器。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、合併 registries、檢查重複與缺漏。
//   - 執行階段：依模型 ID 產生 Checker / Simulator，或建立 CheckRuntime 對外服務。
//
// 執行階段開始後 catalog 會被 Freeze。
//
//	lab, _ := petlab.NewAuto(core.Default(), petlab.Configs(cfgFS), petlab.Logics(reg))
//	ck, _ := lab.NewChecker(1, nil)
//	rep, _ := ck.Check(ctx)
type Petlab struct {
	cat *catalog.Catalog
	reg *logic.Registry
	cf  core.PRNGFactory
	log *slog.Logger
	sum []catalog.Summary
}

// New 建立 Petlab；cf 不能為 nil，cfgs 至少一個。logics 可以為空（只跑 explicit 模型）。
func New(cf core.PRNGFactory, cfgs []fs.FS, logics []*logic.Registry) (*Petlab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	reg, err := logic.MergeRegistry(logics...)
	if err != nil {
		return nil, err
	}
	return &Petlab{
		cat: cata,
		reg: reg,
		cf:  cf,
		log: slog.New(slog.DiscardHandler),
	}, nil
}

// NewAuto 註冊所有設定檔並直接進入執行階段。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS, logics []*logic.Registry) (*Petlab, error) {
	lab, err := New(cf, cfgs, logics)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

// SetLogger 之後建立的 Checker / Simulator 使用此 logger；nil 代表不輸出。
func (p *Petlab) SetLogger(log *slog.Logger) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p.log = log
}

func (p *Petlab) Logger() *slog.Logger {
	return p.log
}

func (p *Petlab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔，解析成 ModelSetting 後一次性註冊。
//
//  1. Fail-fast：任何檔案讀取、解析或檢查失敗都立刻回傳。
//  2. 原子性：全部通過才呼叫 Register。
//  3. 依檔名排序處理，行為可重現。
func (p *Petlab) RegisterAll() error {
	names := p.cat.Cfg().Names()
	if len(names) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	entries := make([]catalog.Entry, 0, len(names))
	seenID := map[spec.MID]string{}
	seenName := map[string]string{}
	for _, base := range names {
		if strings.HasPrefix(base, ".") {
			continue
		}
		src, _ := p.cat.Cfg().GetFS(base)
		raw, err := fs.ReadFile(src, base)
		if err != nil {
			return errs.Fatalf("read config failed: %s", base)
		}
		ms, err := catalog.ParseModelSetting(base, raw)
		if err != nil {
			return errs.WrapWithExtra(err, "parse model setting failed", base)
		}
		if prev, ok := seenID[ms.ModelID]; ok {
			return errs.Fatalf("duplicate model id: %d (config=%s and %s)", ms.ModelID, prev, base)
		}
		seenID[ms.ModelID] = base
		key := strings.ToLower(ms.ModelName)
		if prev, ok := seenName[key]; ok {
			return errs.Fatalf("duplicate model name: %s (config=%s and %s)", key, prev, base)
		}
		seenName[key] = base
		if !p.reg.IsExist(ms.LogicKey) {
			return errs.Fatalf("logic not registered: logic_key=%s (config=%s)", ms.LogicKey, base)
		}
		entries = append(entries, catalog.Entry{
			MID:        ms.ModelID,
			Name:       ms.ModelName,
			ConfigName: filepath.Base(base),
		})
	}
	return p.cat.Register(entries...)
}

func (p *Petlab) Freeze() {
	p.cat.Freeze()
}

func (p *Petlab) EntryByID(id spec.MID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Petlab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Petlab) IDs() []spec.MID {
	return p.cat.IDs()
}

func (p *Petlab) All() []catalog.Entry {
	return p.cat.All()
}

// Summary 列出所有模型；結果快取，只能在 Freeze 後呼叫。
func (p *Petlab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ms, err := p.cat.ModelSettingByID(id)
		if err != nil {
			return nil, errs.Wrap(err, "parse model setting failed")
		}
		cs = append(cs, catalog.Summary{
			MID:       id,
			Name:      ms.ModelName,
			Logic:     ms.LogicKey,
			Mode:      ms.Check.Mode,
			Direction: ms.Check.Direction,
			StepBound: ms.Check.StepBound,
		})
	}
	p.sum = cs
	return p.sum, nil
}

// ModelSetting 依 ID 取出已解析的設定。
func (p *Petlab) ModelSetting(id spec.MID) (*spec.ModelSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return p.cat.ModelSettingByID(id)
}

func (p *Petlab) ModelSettingByName(name string) (*spec.ModelSetting, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return p.cat.ModelSettingByName(name)
}

// ============================================================
// ** Checker **
// ============================================================

// NewChecker 以目錄內的模型建立 Checker；override 中的非零欄位覆寫模型預設的 check 設定。
func (p *Petlab) NewChecker(id spec.MID, override *spec.CheckSetting) (*Checker, error) {
	ms, err := p.ModelSetting(id)
	if err != nil {
		return nil, err
	}
	return newChecker(ms, override, p.reg, p.cf, p.log)
}

func (p *Petlab) NewCheckerByName(name string, override *spec.CheckSetting) (*Checker, error) {
	ms, err := p.ModelSettingByName(name)
	if err != nil {
		return nil, err
	}
	return newChecker(ms, override, p.reg, p.cf, p.log)
}

// NewCheckerBySetting 不經過目錄的模型（例如 HTTP 請求內嵌的模型）。
func (p *Petlab) NewCheckerBySetting(ms *spec.ModelSetting, override *spec.CheckSetting) (*Checker, error) {
	if err := p.validInline(ms); err != nil {
		return nil, err
	}
	return newChecker(ms, override, p.reg, p.cf, p.log)
}

func (p *Petlab) NewCheckerByYAML(raw []byte, override *spec.CheckSetting) (*Checker, error) {
	ms, err := spec.GetModelSettingByYAML(raw)
	if err != nil {
		return nil, asWarn(err)
	}
	return p.NewCheckerBySetting(ms, override)
}

func (p *Petlab) NewCheckerByJSON(raw []byte, override *spec.CheckSetting) (*Checker, error) {
	ms, err := spec.GetModelSettingByJSON(raw)
	if err != nil {
		return nil, asWarn(err)
	}
	return p.NewCheckerBySetting(ms, override)
}

func (p *Petlab) validInline(ms *spec.ModelSetting) error {
	if ms == nil {
		return errs.NewWarn("model setting required")
	}
	if !p.reg.IsExist(ms.LogicKey) {
		return errs.Warnf("logic not registered: %s", ms.LogicKey)
	}
	return nil
}

// asWarn 使用者提供的設定錯誤屬於請求錯誤。
func asWarn(err error) error {
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Fatal {
		return errs.NewWithExtra(errs.Warn, "invalid model", err.Error())
	}
	return err
}

// ============================================================
// ** Simulator **
// ============================================================

func (p *Petlab) NewSimulator(id spec.MID) (*Simulator, error) {
	ms, err := p.ModelSetting(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ms, p.reg, p.cf, p.log)
}

func (p *Petlab) NewSimulatorBySetting(ms *spec.ModelSetting) (*Simulator, error) {
	if err := p.validInline(ms); err != nil {
		return nil, err
	}
	return newSimulator(ms, p.reg, p.cf, p.log)
}

// BuildRuntime 進入服務階段：Freeze 目錄並建立併發受限的 CheckRuntime。
func (p *Petlab) BuildRuntime(poolSize int) (*CheckRuntime, error) {
	p.Freeze()
	if len(p.cat.IDs()) == 0 {
		return nil, errs.NewFatal("no models registered")
	}
	return newCheckRuntime(p, poolSize), nil
}
