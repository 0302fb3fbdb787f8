package util

import (
	"strings"
	"unicode/utf8"
)

const DateFormat = "2006-01-02"

// CleanText 压缩空白、去除首尾空格并剔除非法 UTF-8 字节
// 提示词与向量化共用同一套清洗规则
func CleanText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Join(strings.Fields(s), " ")
}
