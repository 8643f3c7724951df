//go:build !windows

package jsoncsv

const platformLineBreak = "\n"
