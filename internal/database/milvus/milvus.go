package milvus

import (
	"context"
	"fmt"
	"sync"

	"docmind/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient wraps the Milvus SDK client together with the collection
// schema configuration.
type MilvusClient struct {
	Client client.Client
	Config *config.MilvusConfig
}

// GetClient creates and returns the Milvus client as a singleton.
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("cannot connect to Milvus: %w", err)
			return
		}
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close safely closes the connection to Milvus.
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// HealthCheck verifies connectivity by listing collections.
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// Flush persists buffered inserts so they become visible to searches.
func (c *MilvusClient) Flush(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	if err := c.Client.Flush(ctx, collName, false); err != nil {
		return fmt.Errorf("flushing collection '%s' failed: %w", collName, err)
	}
	return nil
}

// EnsureCollection creates the configured collection and its vector index if
// they do not exist, then loads the collection for querying.
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.Schema.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("checking collection existence failed: %w", err)
	}
	if !exists {
		schemaFields := make([]*entity.Field, 0, len(c.Config.Schema.Fields))
		for _, fieldCfg := range c.Config.Schema.Fields {
			field := entity.NewField().WithName(fieldCfg.Name)

			if fieldCfg.IsPrimaryKey {
				field = field.WithIsPrimaryKey(true)
			}

			switch fieldCfg.DataType {
			case "Int64":
				field = field.WithDataType(entity.FieldTypeInt64)
			case "VarChar":
				field = field.WithDataType(entity.FieldTypeVarChar).WithMaxLength(int64(fieldCfg.MaxLength))
			case "FloatVector":
				field = field.WithDataType(entity.FieldTypeFloatVector).WithDim(int64(fieldCfg.Dim))
			default:
				return fmt.Errorf("unsupported field data type: %s", fieldCfg.DataType)
			}

			schemaFields = append(schemaFields, field)
		}

		schema := entity.NewSchema().
			WithName(collName).
			WithDescription(c.Config.Schema.Description)
		for _, field := range schemaFields {
			schema = schema.WithField(field)
		}

		if err := c.Client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("creating collection failed: %w", err)
		}

		idx, err := c.buildIndexFromConfig()
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, c.Config.Schema.Index.FieldName, idx, false); err != nil {
			return fmt.Errorf("creating index on field '%s' failed: %w", c.Config.Schema.Index.FieldName, err)
		}
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("loading collection '%s' failed: %w", collName, err)
	}
	return nil
}

// buildIndexFromConfig builds the index entity from the schema config.
func (c *MilvusClient) buildIndexFromConfig() (entity.Index, error) {
	indexCfg := c.Config.Schema.Index
	metricType := entity.MetricType(indexCfg.MetricType)

	switch indexCfg.IndexType {
	case "IVF_FLAT":
		nlist, ok := indexCfg.Params["nlist"].(int)
		if !ok {
			nlist = 128
		}
		return entity.NewIndexIvfFlat(metricType, nlist)
	case "HNSW":
		m, ok := indexCfg.Params["M"].(int)
		if !ok {
			m = 8
		}
		efConstruction, ok := indexCfg.Params["efConstruction"].(int)
		if !ok {
			efConstruction = 96
		}
		return entity.NewIndexHNSW(metricType, m, efConstruction)
	case "AUTOINDEX":
		return entity.NewIndexAUTOINDEX(metricType)
	default:
		return nil, fmt.Errorf("unsupported index type: %s", indexCfg.IndexType)
	}
}
