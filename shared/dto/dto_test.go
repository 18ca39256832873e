package dto_test

import (
	"net/http/httptest"
	"testing"

	"hms/shared/dto"
)

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name: "eq with table",
			filter: dto.Filter{
				Field:    "status",
				Operator: dto.FilterOperatorEq,
				Value:    "pending",
				Table:    "booking_requests",
			},
			wantWhere: "booking_requests.status = :status",
			wantArgs:  map[string]any{"status": "pending"},
		},
		{
			name: "eq without table",
			filter: dto.Filter{
				Field:    "department",
				Operator: dto.FilterOperatorEq,
				Value:    "Computer Science",
			},
			wantWhere: "department = :department",
			wantArgs:  map[string]any{"department": "Computer Science"},
		},
		{
			name: "in with slice",
			filter: dto.Filter{
				Field:    "status",
				Operator: dto.FilterOperatorIn,
				Value:    []string{"approved", "rejected"},
			},
			wantWhere: "status IN (:status_0, :status_1) ",
			wantArgs:  map[string]any{"status_0": "approved", "status_1": "rejected"},
		},
		{
			name: "is not null",
			filter: dto.Filter{
				Field:    "documents",
				Operator: dto.FilterIsNotNull,
			},
			wantWhere: "documents IS NOT NULL",
			wantArgs:  map[string]any{},
		},
		{
			name: "unknown operator yields empty clause",
			filter: dto.Filter{
				Field:    "status",
				Operator: "between",
			},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			if where != tt.wantWhere {
				t.Errorf("expected where %q, got %q", tt.wantWhere, where)
			}

			if len(args) != len(tt.wantArgs) {
				t.Fatalf("expected %d args, got %d", len(tt.wantArgs), len(args))
			}

			for key, want := range tt.wantArgs {
				if args[key] != want {
					t.Errorf("expected args[%q] = %v, got %v", key, want, args[key])
				}
			}
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "user_id", Operator: dto.FilterOperatorEq, Value: "user-1"},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{Field: "status", ArgName: "status_a", Operator: dto.FilterOperatorEq, Value: "approved"},
					dto.Filter{Field: "status", ArgName: "status_b", Operator: dto.FilterOperatorEq, Value: "rejected"},
				},
			},
		},
	}

	where, args := group.GetWhereClause()

	want := "(user_id = :user_id AND (status = :status_a OR status = :status_b))"
	if where != want {
		t.Errorf("expected %q, got %q", want, where)
	}

	if args["user_id"] != "user-1" || args["status_a"] != "approved" || args["status_b"] != "rejected" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestFilterGroup_Empty(t *testing.T) {
	group := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}

	where, args := group.GetWhereClause()
	if where != "" {
		t.Errorf("expected empty where clause, got %q", where)
	}

	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		useDefaults bool
		want        dto.QueryParams
	}{
		{
			name:        "defaults applied",
			url:         "/v1/requests",
			useDefaults: true,
			want:        dto.QueryParams{Page: 1, Limit: 10, SortBy: "created_at", SortDir: "DESC"},
		},
		{
			name:        "explicit values",
			url:         "/v1/requests?page=3&limit=25&sort_by=start_date&sort_dir=asc",
			useDefaults: true,
			want:        dto.QueryParams{Page: 3, Limit: 25, SortBy: "start_date", SortDir: "ASC"},
		},
		{
			name:        "defaults fill missing sort direction",
			url:         "/v1/requests?page=2&sort_by=department",
			useDefaults: true,
			want:        dto.QueryParams{Page: 2, Limit: 10, SortBy: "department", SortDir: "DESC"},
		},
		{
			name:        "invalid values ignored",
			url:         "/v1/requests?page=zero&limit=-4&sort_dir=sideways",
			useDefaults: false,
			want:        dto.QueryParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)

			params := dto.QueryParams{}
			params.FromRequest(r, tt.useDefaults)

			if params != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, params)
			}
		})
	}
}
