package core

import (
	"context"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
	"github.com/bitergia/grimoirelab-metrics/schema"
)

// ScheduleRepositories asks GrimoireLab to fetch the commits of every
// repository. The first failure aborts scheduling, since the data of that
// repository would never arrive.
func ScheduleRepositories(ctx context.Context, tasks contract.TaskService, repositories []string, log *contract.Logger) error {
	log.Infof("Scheduling tasks")
	for _, uri := range repositories {
		log.Debugf("Scheduling task to fetch commits from %s", uri)
		if err := tasks.ScheduleRepository(ctx, uri, schema.GitDatasource, schema.CommitCategory); err != nil {
			log.Errorf("Error scheduling task: %v", err)
			return err
		}
	}
	return nil
}
