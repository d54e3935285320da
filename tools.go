//go:build tools

// Tool dependencies invoked through go generate (mockgen), tracked here
// so go.mod and go.sum stay in sync on a fresh checkout.
package main

import (
	_ "go.uber.org/mock/mockgen"
)
