package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// reservedChars strips characters that are not allowed in file names on common filesystems.
var reservedChars = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeFilename removes the characters < > : " / \ | ? * from name.
// Everything else, whitespace included, is kept as is.
func SanitizeFilename(name string) string {
	return reservedChars.Replace(name)
}

// CalculateDataMD5 returns the hex encoded MD5 sum of data
func CalculateDataMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
