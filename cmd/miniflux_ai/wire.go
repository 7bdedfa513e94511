//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final binary.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/iWorld-y/miniflux_ai/internal/config"
	"github.com/iWorld-y/miniflux_ai/internal/server"
)

// initApp init kratos application.
func initApp(*config.Config, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		newApp,
	))
}

// initJobs 构造 poll / digest 子命令用到的组件
func initJobs(*config.Config) (*jobs, error) {
	panic(wire.Build(
		server.ProviderSet,
		wire.Struct(new(jobs), "*"),
	))
}
