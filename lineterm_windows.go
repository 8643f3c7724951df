//go:build windows

package jsoncsv

const platformLineBreak = "\r\n"
