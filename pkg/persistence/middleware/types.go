package middleware

import "github.com/aretw0/wattle/pkg/ports"

// Middleware allows wrapping a RunRecorder to add behavior.
type Middleware func(ports.RunRecorder) ports.RunRecorder
