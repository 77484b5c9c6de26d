package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/export"
	"github.com/joseph-ayodele/price-tracker/internal/ingest"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
	"github.com/joseph-ayodele/price-tracker/internal/stores"
)

// PriceService implements PriceServer on top of the pipeline.
type PriceService struct {
	proc   *pipeline.Processor
	stores *stores.Service
	export *export.Service
	images *ingest.ImageStore
	logger *slog.Logger
}

func NewPriceService(proc *pipeline.Processor, st *stores.Service, exp *export.Service, images *ingest.ImageStore, logger *slog.Logger) *PriceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceService{proc: proc, stores: st, export: exp, images: images, logger: logger}
}

var _ PriceServer = (*PriceService)(nil)

func (s *PriceService) ExtractPrices(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	encoded, err := stringField(in, "image_base64")
	if err != nil {
		return nil, err
	}
	filename, err := stringField(in, "filename")
	if err != nil {
		return nil, err
	}
	location, err := stringField(in, "location")
	if err != nil {
		return nil, err
	}
	storeID, err := uuidField(in, "store_id")
	if err != nil {
		return nil, err
	}
	v := common.NewValidator().
		Field("image_base64", encoded, common.Required).
		Field("filename", filename, common.Required).
		Field("location", location, common.MaxLength(constants.MaxStoreFieldLen))
	if err := v.Err(); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, common.InvalidInputf("image_base64 is not valid base64")
	}
	imagePath, err := s.images.Save(filename, data)
	if err != nil {
		return nil, err
	}

	recs, err := s.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{
		Image:            data,
		ImagePath:        imagePath,
		StoreID:          storeID,
		Location:         location,
		OriginalFilename: filename,
	})
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Successfully extracted %d products", len(recs))
	if len(recs) == 0 {
		msg = "No products found in the image or extraction failed"
	}
	return toStruct(map[string]any{
		"success":              len(recs) > 0,
		"count":                len(recs),
		"pending_review_count": pipeline.CountPending(recs),
		"message":              msg,
		"extracted_products":   recordList(recs),
		"image_path":           imagePath,
	})
}

func (s *PriceService) ReviewRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	name, err := optionalString(in, "product_name")
	if err != nil {
		return nil, err
	}
	price, err := numberField(in, "price")
	if err != nil {
		return nil, err
	}
	action, err := stringField(in, "action")
	if err != nil {
		return nil, err
	}

	v := common.NewValidator()
	if name != nil {
		v.Field("product_name", *name, common.Required, common.MaxLength(constants.MaxProductNameLen))
	}
	v.Field("price", price, common.NonNegative, common.MaxNumber(constants.MaxPrice))
	if err := v.Err(); err != nil {
		return nil, err
	}

	rec, err := s.proc.ReviewRecord(ctx, id, pipeline.ReviewCommand{
		Name:   name,
		Price:  price,
		Action: constants.ReviewAction(action),
	})
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"record": recordValue(*rec)})
}

func (s *PriceService) ListRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	filter, err := recordFilterFrom(in)
	if err != nil {
		return nil, err
	}
	page, err := pageFrom(in)
	if err != nil {
		return nil, err
	}
	res, err := s.proc.ListRecords(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return toStruct(pageValue(res))
}

func (s *PriceService) ListPendingReview(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	page, err := pageFrom(in)
	if err != nil {
		return nil, err
	}
	res, err := s.proc.ListPendingReview(ctx, page)
	if err != nil {
		return nil, err
	}
	return toStruct(pageValue(res))
}

func (s *PriceService) RecordsByStore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	storeID, err := requiredUUID(in, "store_id")
	if err != nil {
		return nil, err
	}
	day, err := dateField(in, "date")
	if err != nil {
		return nil, err
	}
	recs, err := s.proc.RecordsByStore(ctx, storeID, day)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"items": recordList(recs)})
}

func (s *PriceService) ExportRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	filter, err := recordFilterFrom(in)
	if err != nil {
		return nil, err
	}
	data, err := s.export.ExportRecordsXLSX(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{
		"filename":    "prices.xlsx",
		"xlsx_base64": base64.StdEncoding.EncodeToString(data),
	})
}

func (s *PriceService) CreateStore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req stores.CreateStoreRequest
	for key, dst := range map[string]*string{
		"store_name": &req.StoreName,
		"channel":    &req.Channel,
		"branch":     &req.Branch,
		"manager":    &req.Manager,
	} {
		v, err := stringField(in, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	st, created, err := s.stores.CreateStore(ctx, req)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"store": storeValue(*st), "created": created})
}

func (s *PriceService) GetStore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	st, err := s.stores.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"store": storeValue(*st)})
}

func (s *PriceService) ListStores(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var filter entity.StoreFilter
	for key, dst := range map[string]*string{
		"store_name": &filter.StoreName,
		"channel":    &filter.Channel,
		"branch":     &filter.Branch,
	} {
		v, err := stringField(in, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	list, err := s.stores.ListStores(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(list))
	for _, st := range list {
		out = append(out, storeValue(st))
	}
	return toStruct(map[string]any{"stores": out})
}

func (s *PriceService) UpdateStore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	var upd entity.StoreUpdate
	for key, dst := range map[string]**string{
		"store_name": &upd.StoreName,
		"channel":    &upd.Channel,
		"branch":     &upd.Branch,
		"manager":    &upd.Manager,
	} {
		v, err := optionalString(in, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	st, err := s.stores.UpdateStore(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"store": storeValue(*st)})
}

func (s *PriceService) DeleteStore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredUUID(in, "id")
	if err != nil {
		return nil, err
	}
	if err := s.stores.DeleteStore(ctx, id); err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"deleted": true})
}

func (s *PriceService) Stats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	st, err := s.proc.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{
		"total_products":  st.TotalProducts,
		"total_stores":    st.TotalStores,
		"pending_reviews": st.PendingReviews,
	})
}

// recordFilterFrom reads product_name, store_id, status and the inclusive
// start_date/end_date range.
func recordFilterFrom(in *structpb.Struct) (entity.RecordFilter, error) {
	var f entity.RecordFilter
	var err error
	if f.ProductName, err = stringField(in, "product_name"); err != nil {
		return f, err
	}
	if f.StoreID, err = uuidField(in, "store_id"); err != nil {
		return f, err
	}
	st, err := stringField(in, "status")
	if err != nil {
		return f, err
	}
	if st != "" {
		if f.Status, err = constants.ParseStatus(st); err != nil {
			return f, common.InvalidInputf("status %q is not a record status", strings.ToUpper(st))
		}
	}
	if f.From, err = dateField(in, "start_date"); err != nil {
		return f, err
	}
	end, err := dateField(in, "end_date")
	if err != nil {
		return f, err
	}
	if end != nil {
		next := end.AddDate(0, 0, 1)
		f.To = &next
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return f, common.InvalidInputf("start_date must not be after end_date")
	}
	return f, nil
}
