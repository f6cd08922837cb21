package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// TopicSpec describes a topic to provision.
type TopicSpec struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	RetentionMs       string
}

// EnsureTopics creates the topics that do not yet exist. Existing topics are
// left untouched.
func EnsureTopics(ctx context.Context, client *kgo.Client, specs ...TopicSpec) error {
	adm := kadm.NewClient(client)
	for _, spec := range specs {
		partitions := spec.Partitions
		if partitions <= 0 {
			partitions = 1
		}
		replication := spec.ReplicationFactor
		if replication <= 0 {
			replication = 1
		}
		var configs map[string]*string
		if spec.RetentionMs != "" {
			retention := spec.RetentionMs
			configs = map[string]*string{"retention.ms": &retention}
		}
		resp, err := adm.CreateTopics(ctx, partitions, replication, configs, spec.Name)
		if err != nil {
			return fmt.Errorf("create topic %s: %w", spec.Name, err)
		}
		for _, r := range resp {
			if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
				return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
			}
		}
	}
	return nil
}
