package policy

import (
	"errors"
	"testing"

	"github.com/hitoshi/eventgate/internal/model"
)

var (
	operator    = &model.Identity{ID: "op-1", Username: "operator_jakarta_1", Role: model.RoleOperator, UnitCode: "JAKARTA_01"}
	verifikator = &model.Identity{ID: "ver-1", Username: "verifikator_jakarta", Role: model.RoleVerifikator, UnitCode: "JAKARTA_01"}
)

func strPtr(s string) *string { return &s }

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		identity *model.Identity
		op       Operation
		owner    *string
		allowed  bool
		reason   DenyReason
	}{
		{"匿名で一覧取得", nil, OpEventPermissionList, nil, true, ""},
		{"匿名で詳細取得", nil, OpEventPermissionGet, nil, true, ""},
		{"匿名で参照データ", nil, OpReferenceList, nil, true, ""},
		{"匿名で登壇者一覧", nil, OpSpeakerList, nil, true, ""},

		{"匿名でme", nil, OpAccountMe, nil, false, ReasonUnauthenticated},
		{"operatorでme", operator, OpAccountMe, nil, true, ""},
		{"verifikatorでme", verifikator, OpAccountMe, nil, true, ""},

		{"匿名で作成", nil, OpEventPermissionCreate, nil, false, ReasonUnauthenticated},
		{"operatorで作成", operator, OpEventPermissionCreate, nil, true, ""},
		{"verifikatorで作成", verifikator, OpEventPermissionCreate, nil, false, ReasonForbiddenRole},

		{"匿名で検証一覧", nil, OpEventPermissionListForVerification, nil, false, ReasonUnauthenticated},
		{"operatorで検証一覧", operator, OpEventPermissionListForVerification, nil, false, ReasonForbiddenRole},
		{"verifikatorで検証一覧", verifikator, OpEventPermissionListForVerification, nil, true, ""},

		{"verifikatorで検証", verifikator, OpEventPermissionVerify, nil, true, ""},
		{"operatorで検証", operator, OpEventPermissionVerify, nil, false, ReasonForbiddenRole},

		{"所有者が更新", operator, OpEventPermissionUpdate, strPtr("op-1"), true, ""},
		{"他人が更新", operator, OpEventPermissionUpdate, strPtr("op-2"), false, ReasonForbiddenOwnership},
		{"対象なしで更新", operator, OpEventPermissionUpdate, nil, false, ReasonForbiddenOwnership},
		{"verifikatorが更新", verifikator, OpEventPermissionUpdate, strPtr("ver-1"), false, ReasonForbiddenRole},
		{"匿名で削除", nil, OpEventPermissionDelete, strPtr("op-1"), false, ReasonUnauthenticated},
		{"所有者が削除", operator, OpEventPermissionDelete, strPtr("op-1"), true, ""},

		{"所有者が登壇者追加", operator, OpSpeakerCreate, strPtr("op-1"), true, ""},
		{"他人が登壇者更新", operator, OpSpeakerUpdate, strPtr("op-2"), false, ReasonForbiddenOwnership},
		{"verifikatorが登壇者削除", verifikator, OpSpeakerDelete, strPtr("ver-1"), false, ReasonForbiddenRole},

		{"未登録オペレーション", operator, Operation("event_permission.purge"), nil, false, ReasonForbiddenRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.identity, tt.op, tt.owner)
			if d.Allowed != tt.allowed {
				t.Fatalf("Allowed = %v, want %v (reason %q)", d.Allowed, tt.allowed, d.Reason)
			}
			if d.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.reason)
			}
			if !d.Allowed && d.Message == "" {
				t.Error("denied decision has empty message")
			}
		})
	}
}

// 認証 → ロール → 所有者の順で評価され、先に失敗した段階の理由が返ることを検証する。
func TestDecide_EvaluationOrder(t *testing.T) {
	// 匿名かつ他人のレコード: 認証エラーが優先
	if d := Decide(nil, OpEventPermissionUpdate, strPtr("someone")); d.Reason != ReasonUnauthenticated {
		t.Errorf("anonymous: Reason = %q, want %q", d.Reason, ReasonUnauthenticated)
	}
	// ロール違反かつ他人のレコード: ロールエラーが優先
	if d := Decide(verifikator, OpEventPermissionDelete, strPtr("someone")); d.Reason != ReasonForbiddenRole {
		t.Errorf("wrong role: Reason = %q, want %q", d.Reason, ReasonForbiddenRole)
	}
}

func TestRequiresOwnership(t *testing.T) {
	want := map[Operation]bool{
		OpEventPermissionUpdate: true,
		OpEventPermissionDelete: true,
		OpSpeakerCreate:         true,
		OpSpeakerUpdate:         true,
		OpSpeakerDelete:         true,
		OpEventPermissionVerify: false,
		OpEventPermissionCreate: false,
		OpEventPermissionGet:    false,
	}
	for op, w := range want {
		if got := RequiresOwnership(op); got != w {
			t.Errorf("RequiresOwnership(%s) = %v, want %v", op, got, w)
		}
	}
}

func TestDecision_Err(t *testing.T) {
	if err := (Decision{Allowed: true}).Err(); err != nil {
		t.Errorf("allowed Err() = %v, want nil", err)
	}

	tests := []struct {
		reason DenyReason
		code   string
	}{
		{ReasonUnauthenticated, model.ErrCodeUnauthenticated},
		{ReasonForbiddenRole, model.ErrCodeForbiddenRole},
		{ReasonForbiddenOwnership, model.ErrCodeForbiddenOwnership},
	}
	for _, tt := range tests {
		err := Decision{Reason: tt.reason, Message: "denied"}.Err()
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Err() = %T, want *model.APIError", err)
		}
		if apiErr.Code != tt.code {
			t.Errorf("Code = %q, want %q", apiErr.Code, tt.code)
		}
	}
}

func TestAuthorize_SkipsOwnership(t *testing.T) {
	if d := Authorize(operator, OpEventPermissionUpdate); !d.Allowed {
		t.Errorf("operator update pre-check denied: %q", d.Reason)
	}
	if d := Authorize(nil, OpEventPermissionDelete); d.Reason != ReasonUnauthenticated {
		t.Errorf("anonymous Reason = %q, want %q", d.Reason, ReasonUnauthenticated)
	}
	if d := Authorize(verifikator, OpSpeakerCreate); d.Reason != ReasonForbiddenRole {
		t.Errorf("verifikator Reason = %q, want %q", d.Reason, ReasonForbiddenRole)
	}
}
