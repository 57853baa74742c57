package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingrea/tddflow/internal/config"
	"github.com/kingrea/tddflow/internal/logbook"
	"github.com/kingrea/tddflow/internal/logging"
	"github.com/kingrea/tddflow/internal/testrunner"
	"github.com/kingrea/tddflow/internal/workflow"
	"github.com/kingrea/tddflow/internal/workflow/engine"
	"github.com/kingrea/tddflow/internal/workflow/registry"
)

// session is everything one invocation needs, opened in dependency order.
type session struct {
	config  *config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
	engine  *engine.Engine
	runner  testrunner.Runner
}

func openSession(opts *options) (*session, error) {
	cfg, err := config.Load(opts.projectRoot, config.Overrides{
		Catalog:   opts.catalog,
		StateFile: opts.stateFile,
		LogLevel:  opts.logLevel,
	})
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{Dir: cfg.LogsDir(), Level: cfg.LogLevel()})
	if err != nil {
		return nil, err
	}
	sess := &session{config: cfg, logger: logger}

	reg, err := registry.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		logger.Error("load catalog failed", zap.String("catalog", cfg.CatalogPath()), zap.Error(err))
		sess.Close()
		return nil, err
	}
	journal, err := logbook.New(cfg.JournalPath())
	if err != nil {
		sess.Close()
		return nil, err
	}
	sess.journal = journal
	sess.logger.Logger = logger.With(zap.String("session", journal.Session()))

	eng, err := engine.New(reg, engine.NewRepository(cfg.StatePath()),
		engine.WithLogger(sess.logger.Logger),
		engine.WithJournal(journal),
	)
	if err != nil {
		sess.Close()
		return nil, err
	}
	if err := eng.Open(); err != nil {
		var corrupt *workflow.CorruptStateError
		if errors.As(err, &corrupt) {
			journal.Error("state file %s is corrupt: %v", corrupt.Path, corrupt.Err)
		}
		sess.Close()
		return nil, fmt.Errorf("open workflow state: %w", err)
	}
	sess.engine = eng
	sess.runner = testrunner.Runner{
		Command: cfg.Project.TestRunner.Command,
		All:     cfg.Project.TestRunner.All,
		Dir:     cfg.ProjectDir,
		Timeout: cfg.TestTimeout(),
	}
	return sess, nil
}

func (s *session) Close() {
	if s == nil || s.logger == nil {
		return
	}
	_ = s.logger.Close()
}
