package model

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/YuminosukeSato/digitnet/pkg/errors"
)

// SaveJSON はvをJSONとしてファイルに保存する
//
// パラメータ:
//   - v: 保存する値（モデルのドキュメント等）
//   - filename: 保存先のファイルパス
//
// 戻り値:
//   - error: 保存に失敗した場合のエラー
//
// 使用例:
//
//	doc, _ := clf.ToDocument()
//	err := model.SaveJSON(doc, "model.json")
func SaveJSON(v interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()

	return EncodeJSON(v, file)
}

// LoadJSON はファイルからJSONを厳密に読み込む
//
// パラメータ:
//   - v: 読み込み先（ポインタ）
//   - filename: 読み込み元のファイルパス
//
// 戻り値:
//   - error: 読み込みに失敗した場合、または未知のキーがある場合のエラー
func LoadJSON(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return DecodeJSONStrict(file, v)
}

// EncodeJSON はvをインデント付きJSONとしてio.Writerに書き出す
func EncodeJSON(v interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// DecodeJSONStrict はio.ReaderからJSONを読み込む。
// 未知のフィールドと末尾の余分なデータはエラーになる。
func DecodeJSONStrict(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	if dec.More() {
		return errors.New("failed to decode model: trailing data after document")
	}
	return nil
}

// DecodeJSONStrictBytes は DecodeJSONStrict のバイト列版。
func DecodeJSONStrictBytes(data []byte, v interface{}) error {
	return DecodeJSONStrict(bytes.NewReader(data), v)
}
