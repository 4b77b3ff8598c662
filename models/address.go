// models/address.go
package models

import "strings"

// ZeroAddress 零地址：collection / 调用方都不允许
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ValidAddress 只做格式校验（0x + 40 位十六进制），签名校验在上游
func ValidAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func IsZeroAddress(s string) bool {
	return s == "" || strings.EqualFold(s, ZeroAddress)
}
