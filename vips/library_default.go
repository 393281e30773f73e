//go:build !vipscgo

package vips

import (
	"github.com/cshum/vipscall/internal/memvips"
	"github.com/cshum/vipscall/native"
)

func defaultLibrary() native.Library {
	return memvips.New()
}
