package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Stage is the pipeline position of an order.
type Stage string

const (
	StageCSR         Stage = "csr"
	StageTeamLead    Stage = "teamlead"
	StageProcurement Stage = "procurement"
	StageWarehouse   Stage = "warehouse"
	StageAccounting  Stage = "accounting"
)

// stageOrder fixes the forward direction of the pipeline.
var stageOrder = map[Stage]int{
	StageCSR:         0,
	StageTeamLead:    1,
	StageProcurement: 2,
	StageWarehouse:   3,
	StageAccounting:  4,
}

// Index returns the pipeline position, -1 for unknown stages.
func (s Stage) Index() int {
	if idx, ok := stageOrder[s]; ok {
		return idx
	}
	return -1
}

// Status is the outcome within a stage.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDenied    Status = "denied"
	StatusInvoiced  Status = "invoiced"
	StatusCompleted Status = "completed"
)

// State is the full lifecycle position of an order. Keeping stage and
// status together makes illegal combinations unrepresentable in the
// transition table.
type State struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
}

func (s State) String() string {
	return string(s.Stage) + "/" + string(s.Status)
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	if s.Status == StatusDenied {
		// A denied csr-stage order can still be reset for correction.
		return s.Stage != StageCSR
	}
	return s.Stage == StageAccounting && s.Status == StatusCompleted
}

// Kind distinguishes the sales track from the purchase track. Both run
// the same pipeline; purchases simply have no customer.
type Kind string

const (
	KindSale     Kind = "sale"
	KindPurchase Kind = "purchase"
)

// Condition is what the warehouse records about the goods.
type Condition string

const (
	ConditionGood    Condition = "good"
	ConditionSpoiled Condition = "spoiled"
	ConditionDamaged Condition = "damaged"
)

// Order is the single write-model for both sales and purchases.
type Order struct {
	ID            uuid.UUID
	Kind          Kind
	ItemID        uuid.UUID
	CustomerID    *uuid.UUID
	DistributorID *uuid.UUID
	Quantity      int64
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	Stage         Stage
	Status        Status
	Condition     Condition
	Note          string

	// Actor assignments, one per stage, set when that stage's actor acts.
	CSRID         *uuid.UUID
	TeamLeadID    *uuid.UUID
	ProcurementID *uuid.UUID
	WarehouseID   *uuid.UUID
	AccountingID  *uuid.UUID

	// Reserved is true while the order holds stock that must be returned
	// if the order is denied or deleted.
	Reserved bool

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State returns the current lifecycle position.
func (o Order) State() State {
	return State{Stage: o.Stage, Status: o.Status}
}

// actorColumn maps the acting role to the assignment column it owns.
// Exactly one of these is written per transition.
var actorColumn = map[shared.Role]string{
	shared.RoleCSR:         "csr_id",
	shared.RoleTeamLead:    "teamlead_id",
	shared.RoleProcurement: "procurement_id",
	shared.RoleWarehouse:   "warehouse_id",
	shared.RoleAccounting:  "accounting_id",
}
