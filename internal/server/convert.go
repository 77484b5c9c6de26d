package server

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
)

func field(in *structpb.Struct, key string) (*structpb.Value, bool) {
	v, ok := in.GetFields()[key]
	if !ok || v == nil {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// stringField returns the trimmed string at key; absent is "".
func stringField(in *structpb.Struct, key string) (string, error) {
	v, ok := field(in, key)
	if !ok {
		return "", nil
	}
	s, isStr := v.GetKind().(*structpb.Value_StringValue)
	if !isStr {
		return "", common.InvalidInputf("%s must be a string", key)
	}
	return strings.TrimSpace(s.StringValue), nil
}

// optionalString distinguishes an absent key from an empty string.
func optionalString(in *structpb.Struct, key string) (*string, error) {
	if _, ok := field(in, key); !ok {
		return nil, nil
	}
	s, err := stringField(in, key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// numberField accepts a JSON number or a numeric string.
func numberField(in *structpb.Struct, key string) (*float64, error) {
	v, ok := field(in, key)
	if !ok {
		return nil, nil
	}
	var f float64
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f = k.NumberValue
	case *structpb.Value_StringValue:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(k.StringValue), 64)
		if err != nil {
			return nil, common.InvalidInputf("%s must be a number", key)
		}
		f = parsed
	default:
		return nil, common.InvalidInputf("%s must be a number", key)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, common.InvalidInputf("%s must be finite", key)
	}
	return &f, nil
}

func intField(in *structpb.Struct, key string, def int) (int, error) {
	f, err := numberField(in, key)
	if err != nil || f == nil {
		return def, err
	}
	if *f != math.Trunc(*f) {
		return 0, common.InvalidInputf("%s must be an integer", key)
	}
	// clamp before converting so huge values cannot wrap around
	switch {
	case *f > math.MaxInt32:
		return math.MaxInt32, nil
	case *f < math.MinInt32:
		return math.MinInt32, nil
	}
	return int(*f), nil
}

func uuidField(in *structpb.Struct, key string) (*uuid.UUID, error) {
	s, err := stringField(in, key)
	if err != nil || s == "" {
		return nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, common.InvalidInputf("%s must be a UUID", key)
	}
	return &id, nil
}

func requiredUUID(in *structpb.Struct, key string) (uuid.UUID, error) {
	id, err := uuidField(in, key)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, common.InvalidInputf("%s is required", key)
	}
	return *id, nil
}

// dateField parses YYYY-MM-DD as a UTC midnight.
func dateField(in *structpb.Struct, key string) (*time.Time, error) {
	s, err := stringField(in, key)
	if err != nil || s == "" {
		return nil, err
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return nil, common.InvalidInputf("%s must be YYYY-MM-DD", key)
	}
	return &t, nil
}

func pageFrom(in *structpb.Struct) (entity.Page, error) {
	num, err := intField(in, "page", 1)
	if err != nil {
		return entity.Page{}, err
	}
	size, err := intField(in, "page_size", 0)
	if err != nil {
		return entity.Page{}, err
	}
	return entity.Page{Number: num, Size: size}.Normalize(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func recordValue(r entity.ExtractedRecord) map[string]any {
	m := map[string]any{
		"id":           r.ID.String(),
		"product_name": r.ProductName,
		"price":        r.Price,
		"image_path":   r.ImagePath,
		"status":       string(r.Status),
		"extracted_at": formatTime(r.ExtractedAt),
		"created_at":   formatTime(r.CreatedAt),
		"updated_at":   formatTime(r.UpdatedAt),
	}
	if r.ConfidenceScore != nil {
		m["confidence_score"] = *r.ConfidenceScore
	}
	if r.StoreID != nil {
		m["store_id"] = r.StoreID.String()
	}
	if len(r.Metadata) > 0 {
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		m["metadata"] = meta
	}
	return m
}

func recordList(recs []entity.ExtractedRecord) []any {
	out := make([]any, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordValue(r))
	}
	return out
}

func pageValue(p entity.RecordPage) map[string]any {
	return map[string]any{
		"items":       recordList(p.Items),
		"total":       p.Total,
		"page":        p.Page,
		"page_size":   p.PageSize,
		"total_pages": p.TotalPages,
	}
}

func storeValue(s entity.Store) map[string]any {
	m := map[string]any{
		"id":         s.ID.String(),
		"store_name": s.StoreName,
		"created_at": formatTime(s.CreatedAt),
		"updated_at": formatTime(s.UpdatedAt),
	}
	for k, v := range map[string]*string{"channel": s.Channel, "branch": s.Branch, "manager": s.Manager} {
		if v != nil {
			m[k] = *v
		}
	}
	return m
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.WrapError(err, "encode response")
	}
	return s, nil
}
