package catalog

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"github.com/sharedcode/regionmerge/region"
)

// Config names the Cassandra keyspace and table this adapter writes to,
// mirroring the shape of the teacher's cassandra.Config
// (cassandra/connection.go).
type Config struct {
	Keyspace    string
	Table       string
	Consistency gocql.Consistency
}

func (c Config) table() string {
	if c.Table == "" {
		return "region_catalog"
	}
	return c.Table
}

func (c Config) consistency() gocql.Consistency {
	if c.Consistency == gocql.Any {
		return gocql.LocalQuorum
	}
	return c.Consistency
}

// cassandraCatalog implements ReaderWriter atop a gocql.Session, grounded
// in the teacher's cassandra/transactionlog.go and
// cassandra/store_repository.go style of building keyspace-qualified
// queries against a shared *gocql.Session.
type cassandraCatalog struct {
	session *gocql.Session
	cfg     Config
}

// NewCassandraCatalog returns a ReaderWriter backed by Cassandra. The
// caller is expected to have already created the keyspace/table (schema
// management mirrors cassandra.OpenConnection's CREATE TABLE IF NOT EXISTS
// calls, omitted here since this package does not own connection setup).
func NewCassandraCatalog(session *gocql.Session, cfg Config) ReaderWriter {
	return &cassandraCatalog{session: session, cfg: cfg}
}

// MergeRegions atomically marks a and b as merged into merged, and inserts
// the merged row, using a gocql LoggedBatch, Cassandra's all-or-nothing
// application of multiple statements, matching spec.md §4.5's "all three
// rows change or none do" guarantee. Grounded in
// cassandra/transactionlog.go's pattern of a single Consistency-leveled
// gocql.Query built against connection.Config.Keyspace, generalized here
// to a batch of three.
func (c *cassandraCatalog) MergeRegions(ctx context.Context, merged, a, b region.Descriptor, origin string) error {
	batch := c.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Cons = c.cfg.consistency()

	updateQualifier := fmt.Sprintf(
		"UPDATE %s.%s SET merged_into_name = ?, merged_into_id = ? WHERE name = ?;",
		c.cfg.Keyspace, c.cfg.table())
	batch.Query(updateQualifier, merged.Name(), int64(merged.Id), string(a.Name()))
	batch.Query(updateQualifier, merged.Name(), int64(merged.Id), string(b.Name()))

	insertMerged := fmt.Sprintf(
		"INSERT INTO %s.%s (name, table_name, start_key, end_key, region_id, origin, merged_into_name, merged_into_id) VALUES (?,?,?,?,?,?,null,0);",
		c.cfg.Keyspace, c.cfg.table())
	batch.Query(insertMerged, string(merged.Name()), merged.Table, []byte(merged.Start), []byte(merged.End), int64(merged.Id), origin)

	return c.session.ExecuteBatch(batch)
}

// GetMergeQualifier fetches the merge qualifier for a region by name,
// grounded in the teacher's single-row SELECT pattern (cassandra's
// storeRepository reads).
func (c *cassandraCatalog) GetMergeQualifier(ctx context.Context, name []byte) (MergeQualifier, error) {
	selectQualifier := fmt.Sprintf(
		"SELECT merged_into_name, merged_into_id FROM %s.%s WHERE name = ?;",
		c.cfg.Keyspace, c.cfg.table())

	var mergedIntoName []byte
	var mergedIntoID int64
	if err := c.session.Query(selectQualifier, string(name)).WithContext(ctx).Consistency(c.cfg.consistency()).
		Scan(&mergedIntoName, &mergedIntoID); err != nil {
		if err == gocql.ErrNotFound {
			return MergeQualifier{}, nil
		}
		return MergeQualifier{}, err
	}
	if len(mergedIntoName) == 0 {
		return MergeQualifier{}, nil
	}
	return MergeQualifier{
		Present: true,
		MergedInto: region.Descriptor{
			Id: region.ID(mergedIntoID),
		},
	}, nil
}
