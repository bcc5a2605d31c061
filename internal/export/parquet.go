package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// TypeMetadataKey is the Arrow field metadata key holding the column type.
const TypeMetadataKey = "taxref.type"

// batchSize is the number of rows per written record batch.
const batchSize = 64 * 1024

// ArrowSchema returns the Arrow schema of t: one nullable string field per
// column. Blank cells are written as nulls.
func ArrowSchema(t Table) *arrow.Schema {
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{
			Name:     c.Name,
			Type:     arrow.BinaryTypes.String,
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{TypeMetadataKey}, []string{c.Type.String()}),
		}
	}
	return arrow.NewSchema(fields, nil)
}

// WriteParquet writes t as a Snappy compressed Parquet file.
func WriteParquet(w io.Writer, t Table) error {
	schema := ArrowSchema(t)
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	pw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	n := len(schema.Fields())
	pending := 0
	flush := func() error {
		if pending == 0 {
			return nil
		}
		rec := b.NewRecord()
		defer rec.Release()
		pending = 0
		return pw.Write(rec)
	}
	for _, r := range t.Rows() {
		for i := range n {
			sb := b.Field(i).(*array.StringBuilder)
			if v := r.Value(i); v.IsBlank() {
				sb.AppendNull()
			} else {
				sb.Append(v.String())
			}
		}
		if pending++; pending == batchSize {
			if err := flush(); err != nil {
				_ = pw.Close()
				return fmt.Errorf("failed to write parquet batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		_ = pw.Close()
		return fmt.Errorf("failed to write parquet batch: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
