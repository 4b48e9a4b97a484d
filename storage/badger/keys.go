package badger

import "fmt"

// Key prefixes for different data types
const (
	checkpointPrefix = "hvckpt"
)

// makeCheckpointKey generates a key for a datasource checkpoint.
func makeCheckpointKey(datasourceID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, datasourceID))
}
