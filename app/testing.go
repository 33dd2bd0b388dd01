package app

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"
	"xray-setup/internal/common"
	"xray-setup/internal/console"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// TestApplication runs the full dependency graph under fxtest
type TestApplication struct {
	tb         testing.TB
	testApp    *fxtest.App
	options    *common.ServiceOptions
	extra      []fx.Option
	controller *console.Controller
}

func NewTestApplication(tb testing.TB, opts ...common.Option) *TestApplication {
	opts = append([]common.Option{
		common.WithPrivilegeCheck(func() error { return nil }),
	}, opts...)

	return &TestApplication{
		tb:      tb,
		options: newServiceOptions(opts...),
	}
}

func (ta *TestApplication) WithOption(opt fx.Option) *TestApplication {
	ta.extra = append(ta.extra, opt)
	return ta
}

func (ta *TestApplication) Start(ctx context.Context) error {
	testOptions := modules(ta.options)

	// Add user-provided options
	testOptions = append(testOptions, ta.extra...)

	// Configure test app
	testOptions = append(testOptions,
		fx.Populate(&ta.controller),
		fx.StartTimeout(10*time.Second),
		fx.StopTimeout(10*time.Second),
	)

	// Create test app
	ta.testApp = fxtest.New(
		ta.tb,
		testOptions...,
	)

	return ta.testApp.Start(ctx)
}

func (ta *TestApplication) Stop(ctx context.Context) error {
	if ta.testApp != nil {
		return ta.testApp.Stop(ctx)
	}
	return nil
}

func (ta *TestApplication) Controller() *console.Controller {
	return ta.controller
}

// RunMenu drives the interactive menu with the given input.
func (ta *TestApplication) RunMenu(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	return console.Run(ctx, bufio.NewReader(in), out, errOut, ta.controller)
}
