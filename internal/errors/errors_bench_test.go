package errors

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkDiagnosticCollector_Failure(b *testing.B) {
	dc := NewDiagnosticCollector()
	err := fmt.Errorf("unexpected token")

	b.ResetTimer()
	for range b.N {
		dc.Failure("js", "ts", err)
	}
}

func BenchmarkDiagnosticCollector_Diagnostics(b *testing.B) {
	dc := NewDiagnosticCollector()
	for i := range 100 {
		dc.Failure([]string{"js", "css", "md", "html"}[i%4], "x", fmt.Errorf("failure %d", i))
	}

	b.ResetTimer()
	for range b.N {
		_ = dc.Diagnostics()
	}
}

func BenchmarkInlineComment(b *testing.B) {
	msg := strings.Repeat("expected ';' */ near </style> ", 20)

	b.ResetTimer()
	for range b.N {
		_ = InlineComment(msg)
	}
}

func BenchmarkPlaygroundError_Error(b *testing.B) {
	err := NewStorageError(ErrCodeStorageWrite, "saving project", fmt.Errorf("disk full")).
		WithProject("Demo").
		WithRole("css")

	b.ResetTimer()
	for range b.N {
		_ = err.Error()
	}
}
