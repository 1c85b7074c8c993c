package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "full",
			cfg:  Config{Host: "db", Port: 5432, User: "app", Password: "p@ss word", DBName: "tasktracker", SSLMode: "require"},
			want: "postgres://app:p%40ss%20word@db:5432/tasktracker?sslmode=require",
		},
		{
			name: "no password defaults sslmode",
			cfg:  Config{Host: "localhost", Port: 5433, User: "postgres", DBName: "tasks"},
			want: "postgres://postgres@localhost:5433/tasks?sslmode=disable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
