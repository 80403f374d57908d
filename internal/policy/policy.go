// Package policy はオペレーションごとのアクセス可否を判定する。
//
// 判定は純粋関数で、I/Oを行わない。評価順は「認証 → ロール → 所有者」で、
// 最初に失敗した段階の理由を返す。
package policy

import "github.com/hitoshi/eventgate/internal/model"

// Operation はゲートウェイが公開する論理オペレーション。
type Operation string

const (
	OpEventPermissionList                Operation = "event_permission.list"
	OpEventPermissionGet                 Operation = "event_permission.get"
	OpEventPermissionListForVerification Operation = "event_permission.list_for_verification"
	OpEventPermissionCreate              Operation = "event_permission.create"
	OpEventPermissionUpdate              Operation = "event_permission.update"
	OpEventPermissionDelete              Operation = "event_permission.delete"
	OpEventPermissionVerify              Operation = "event_permission.verify"

	OpSpeakerList   Operation = "speaker.list"
	OpSpeakerCreate Operation = "speaker.create"
	OpSpeakerUpdate Operation = "speaker.update"
	OpSpeakerDelete Operation = "speaker.delete"

	OpReferenceList Operation = "reference.list"
	OpAccountMe     Operation = "account.me"
)

// DenyReason は拒否理由。
type DenyReason string

const (
	ReasonUnauthenticated    DenyReason = model.ErrCodeUnauthenticated
	ReasonForbiddenRole      DenyReason = model.ErrCodeForbiddenRole
	ReasonForbiddenOwnership DenyReason = model.ErrCodeForbiddenOwnership
)

// Decision は判定結果。Allowedがfalseの場合のみReasonとMessageが意味を持つ。
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Message string
}

// rule はオペレーションのアクセス要件。
type rule struct {
	requireIdentity bool
	role            model.Role // 空の場合は任意のロール
	requireOwner    bool
	roleMessage     string
	ownerMessage    string
}

var rules = map[Operation]rule{
	OpEventPermissionList: {},
	OpEventPermissionGet:  {},
	OpSpeakerList:         {},
	OpReferenceList:       {},
	OpAccountMe:           {requireIdentity: true},
	OpEventPermissionListForVerification: {
		requireIdentity: true,
		role:            model.RoleVerifikator,
		roleMessage:     "Only verifikator can access verification list",
	},
	OpEventPermissionCreate: {
		requireIdentity: true,
		role:            model.RoleOperator,
		roleMessage:     "Only operators can create event permissions",
	},
	OpEventPermissionUpdate: {
		requireIdentity: true,
		role:            model.RoleOperator,
		requireOwner:    true,
		roleMessage:     "Only operators can update event permissions",
		ownerMessage:    "You can only update your own event permissions",
	},
	OpEventPermissionDelete: {
		requireIdentity: true,
		role:            model.RoleOperator,
		requireOwner:    true,
		roleMessage:     "Only operators can delete event permissions",
		ownerMessage:    "You can only delete your own event permissions",
	},
	OpEventPermissionVerify: {
		requireIdentity: true,
		role:            model.RoleVerifikator,
		roleMessage:     "Only verifikator can verify event permissions",
	},
	OpSpeakerCreate: {
		requireIdentity: true,
		role:            model.RoleOperator,
		requireOwner:    true,
		roleMessage:     "Only operators can manage speakers",
		ownerMessage:    "You can only manage speakers of your own event permissions",
	},
	OpSpeakerUpdate: {
		requireIdentity: true,
		role:            model.RoleOperator,
		requireOwner:    true,
		roleMessage:     "Only operators can manage speakers",
		ownerMessage:    "You can only manage speakers of your own event permissions",
	},
	OpSpeakerDelete: {
		requireIdentity: true,
		role:            model.RoleOperator,
		requireOwner:    true,
		roleMessage:     "Only operators can manage speakers",
		ownerMessage:    "You can only manage speakers of your own event permissions",
	},
}

// RequiresOwnership はオペレーションが所有者チェックを必要とするかを返す。
func RequiresOwnership(op Operation) bool {
	return rules[op].requireOwner
}

// Authorize は認証とロールの段階だけを判定する。
// 所有者チェックが必要なオペレーションで、対象の取得前に呼び出す。
func Authorize(identity *model.Identity, op Operation) Decision {
	r, ok := rules[op]
	if !ok {
		return deny(ReasonForbiddenRole, "Operation is not permitted")
	}
	if r.requireIdentity && identity == nil {
		return deny(ReasonUnauthenticated, "You must be logged in to perform this action")
	}
	if r.role != "" && identity.Role != r.role {
		return deny(ReasonForbiddenRole, r.roleMessage)
	}
	return Decision{Allowed: true}
}

// Decide はidentityがopを実行できるかを判定する。
// ownerは所有者チェック対象レコードの所有者ID。対象が見つからない場合はnilを渡す。
// 未登録のオペレーションは認証済みでも拒否する。
func Decide(identity *model.Identity, op Operation, owner *string) Decision {
	if d := Authorize(identity, op); !d.Allowed {
		return d
	}

	if rules[op].requireOwner && (owner == nil || *owner != identity.ID) {
		return deny(ReasonForbiddenOwnership, rules[op].ownerMessage)
	}

	return Decision{Allowed: true}
}

func deny(reason DenyReason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

// Err は拒否の判定を対応するAPIErrorに変換する。許可の場合はnilを返す。
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return model.NewUnauthenticatedError()
	case ReasonForbiddenOwnership:
		return model.NewForbiddenOwnershipError(d.Message)
	default:
		return model.NewForbiddenRoleError(d.Message)
	}
}
