package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/MooMaker/moo-solver/internal/domain"
)

// Archiver implements domain.AuctionArchiver by serializing auction snapshots
// and settlements to JSON and uploading them under a per-round prefix:
//
//	auctions/<round>/instance.json
//	auctions/<round>/settlement.json
//
// A round solved again after a claim expiry overwrites its objects; the
// latest version wins.
type Archiver struct {
	writer *Writer
}

// NewArchiver creates an Archiver that uploads via the given Writer.
func NewArchiver(writer *Writer) *Archiver {
	return &Archiver{writer: writer}
}

// ArchiveInstance uploads the raw auction snapshot for the round.
func (a *Archiver) ArchiveInstance(ctx context.Context, round string, auction *domain.BatchAuction) error {
	data, err := marshalJSON(auction)
	if err != nil {
		return fmt.Errorf("s3blob: archive instance for round %s: %w", round, err)
	}
	return a.upload(ctx, roundKey(round, "instance.json"), data)
}

// ArchiveSettlement uploads the solved settlement for the round.
func (a *Archiver) ArchiveSettlement(ctx context.Context, round string, settlement domain.Settlement) error {
	data, err := marshalJSON(settlement)
	if err != nil {
		return fmt.Errorf("s3blob: archive settlement for round %s: %w", round, err)
	}
	return a.upload(ctx, roundKey(round, "settlement.json"), data)
}

// upload picks the upload path by payload size. Large auction snapshots go
// through the multipart manager; everything else is a single PutObject.
func (a *Archiver) upload(ctx context.Context, key string, data []byte) error {
	if int64(len(data)) > minPartSize {
		return a.writer.PutMultipart(ctx, key, bytes.NewReader(data), minPartSize)
	}
	return a.writer.Put(ctx, key, bytes.NewReader(data), "application/json")
}

func roundKey(round, name string) string {
	return fmt.Sprintf("auctions/%s/%s", round, name)
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.AuctionArchiver = (*Archiver)(nil)
