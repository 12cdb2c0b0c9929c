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

// Package corefmt 報表的二進位封裝：zstd 壓縮的 JSON，以及長度前綴的 blob frame。
//
// store 以 PackJSON 的結果存成 BLOB；Export / Import 以 frame 串接多份 blob。
package corefmt

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/petlab/errs"
)

var (
	encOnce sync.Once
	enc     *zstd.Encoder
	decOnce sync.Once
	dec     *zstd.Decoder
)

// encoder / decoder 以 EncodeAll / DecodeAll 使用時可併發共用。
func encoder() *zstd.Encoder {
	encOnce.Do(func() {
		enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return enc
}

func decoder() *zstd.Decoder {
	decOnce.Do(func() {
		dec, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return dec
}

// PackJSON json.Marshal 後 zstd 壓縮。
func PackJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Wrap(err, "marshal json failed")
	}
	return encoder().EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// UnpackJSON PackJSON 的反向。
func UnpackJSON(b []byte, v any) error {
	raw, err := decoder().DecodeAll(b, nil)
	if err != nil {
		return errs.Wrap(err, "zstd decode failed")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errs.Wrap(err, "unmarshal json failed")
	}
	return nil
}

// WriteBlobFrame frame := uvarint(len(payload)) || payload
func WriteBlobFrame(w io.Writer, payload []byte) error {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(payload)))
	if _, err := w.Write(hdr[:n]); err != nil {
		return errs.Wrap(err, "write blob frame header failed")
	}
	if _, err := w.Write(payload); err != nil {
		return errs.Wrap(err, "write blob frame payload failed")
	}
	return nil
}

// FrameReader 依序讀出 frame；maxBytes 限制單一 payload 大小（0 表示不限）。
type FrameReader struct {
	br       *bufio.Reader
	maxBytes uint64
}

func NewFrameReader(r io.Reader, maxBytes uint64) *FrameReader {
	return &FrameReader{br: bufio.NewReader(r), maxBytes: maxBytes}
}

// Next 讀完時回傳 io.EOF。
func (fr *FrameReader) Next() ([]byte, error) {
	ln, err := binary.ReadUvarint(fr.br)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errs.Wrap(err, "read blob frame header failed")
	}
	if fr.maxBytes > 0 && ln > fr.maxBytes {
		return nil, errs.NewWarn("read blob frame failed: payload exceeds maxBytes")
	}
	buf := make([]byte, ln)
	if _, err := io.ReadFull(fr.br, buf); err != nil {
		return nil, errs.Wrap(err, "read blob frame payload failed")
	}
	return buf, nil
}

// DecodeBlobFrame 解一個完整 frame（單元測試與小型 payload 用）。
func DecodeBlobFrame(frame []byte) ([]byte, error) {
	n, size := binary.Uvarint(frame)
	if size <= 0 {
		return nil, errs.NewWarn("decode blob frame failed: invalid varint length")
	}
	if uint64(len(frame)-size) < n {
		return nil, errs.NewWarn("decode blob frame failed: truncated payload")
	}
	return bytes.Clone(frame[size : size+int(n)]), nil
}
