package transcript

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decode 将导出文件内容转换为字符串：优先按 UTF-8，非法 UTF-8 时按 Latin-1 解码
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO-8859-1 覆盖全部 256 个字节值，理论上不会失败
		return strings.ToValidUTF8(string(data), "\ufffd")
	}
	return string(decoded)
}

// ReadFile 读取并解码聊天导出文件
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("读取聊天记录失败: %w", err)
	}
	return Decode(data), nil
}
