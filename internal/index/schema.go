package index

import (
	"github.com/hashicorp/go-memdb"

	"github.com/isometry/scimgate/internal/model"
)

// PK is the primary index name; every table is keyed by entity id.
const PK = "id"

func userSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: string(model.KindUser),
		Indexes: map[string]*memdb.IndexSchema{
			PK: {
				Name:    PK,
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
		},
	}
}

func groupSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: string(model.KindGroup),
		Indexes: map[string]*memdb.IndexSchema{
			PK: {
				Name:    PK,
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
		},
	}
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			string(model.KindUser):  userSchema(),
			string(model.KindGroup): groupSchema(),
		},
	}
}
