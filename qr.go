package main

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// JoinURL returns the link players follow to open a room
func JoinURL(publicURL, roomID string) string {
	return strings.TrimRight(publicURL, "/") + "/" + roomID
}

// JoinQR renders the room join link as a PNG
func JoinQR(publicURL, roomID string) ([]byte, error) {
	return qrcode.Encode(JoinURL(publicURL, roomID), qrcode.Medium, qrSize)
}
