package e2e

import (
	"buddy-chat/client"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

const eventTimeout = 5 * time.Second

type BaseWSSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWSSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL not set")
	}
}

// Connect dials the server and registers a participant under name.
func (s *BaseWSSuite) Connect(name string) *client.Client {
	header := fmt.Sprintf("  ====== %s joins ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	level := slog.LevelInfo
	if s.Config.DebugFrames {
		level = slog.LevelDebug
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	c, err := client.Dial(ctx, s.Config.ServerURL, logs.GetLoggerFromLevel(level), 64)
	s.Require().NoError(err, "Failed to connect to "+s.Config.ServerURL)
	s.T().Cleanup(func() { _ = c.Close() })
	s.Require().NoError(c.Init(name))
	return c
}

// Next waits for the next server event of c.
func (s *BaseWSSuite) Next(c *client.Client) client.Event {
	select {
	case evt, ok := <-c.Events():
		s.Require().True(ok, "connection closed by server")
		if s.Config.DebugFrames {
			s.T().Logf("received %+v", evt)
		}
		return evt
	case <-time.After(eventTimeout):
		s.Require().FailNow("no event received")
		return client.Event{}
	}
}
