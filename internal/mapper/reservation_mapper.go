package mapper

import (
	"sort"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/model"

	"gorm.io/datatypes"
)

type ReservationMapper struct{}

func NewReservationMapper() *ReservationMapper {
	return &ReservationMapper{}
}

func (m *ReservationMapper) ToEntity(r *model.Reservation) *entity.Reservation {
	if r == nil {
		return nil
	}
	addr := r.Address.Data()
	requests := make([]entity.ServiceRequest, len(r.ServiceRequests))
	for i, req := range r.ServiceRequests {
		requests[i] = m.ServiceRequestToEntity(req)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].Index < requests[j].Index })

	return &entity.Reservation{
		Id:                 r.Id,
		CustomerId:         r.CustomerId,
		CleanerId:          r.CleanerId,
		Status:             entity.ReservationStatus(r.Status),
		ServiceDates:       append([]string{}, r.ServiceDates...),
		ServiceTime:        r.ServiceTime,
		DurationHours:      r.DurationHours,
		Amount:             r.Amount,
		IsLate:             r.IsLate,
		CancellationReason: r.CancellationReason,
		Address: entity.Address{
			Label:      addr.Label,
			Line1:      addr.Line1,
			Line2:      addr.Line2,
			City:       addr.City,
			PostalCode: addr.PostalCode,
			Latitude:   addr.Latitude,
			Longitude:  addr.Longitude,
		},
		AdditionalServices:        append([]string{}, r.AdditionalServices...),
		AdditionalServiceRequests: requests,
		Version:                   r.Version,
		CreatedAt:                 r.CreatedAt,
		UpdatedAt:                 r.UpdatedAt,
	}
}

// ToModel maps the reservation columns only. Ledger rows are written through
// their own repository calls.
func (m *ReservationMapper) ToModel(r *entity.Reservation) *model.Reservation {
	if r == nil {
		return nil
	}
	return &model.Reservation{
		Id:                 r.Id,
		CustomerId:         r.CustomerId,
		CleanerId:          r.CleanerId,
		Status:             string(r.Status),
		ServiceDates:       datatypes.JSONSlice[string](append([]string{}, r.ServiceDates...)),
		ServiceTime:        r.ServiceTime,
		DurationHours:      r.DurationHours,
		Amount:             r.Amount,
		IsLate:             r.IsLate,
		CancellationReason: r.CancellationReason,
		Address: datatypes.NewJSONType(model.AddressSnapshot{
			Label:      r.Address.Label,
			Line1:      r.Address.Line1,
			Line2:      r.Address.Line2,
			City:       r.Address.City,
			PostalCode: r.Address.PostalCode,
			Latitude:   r.Address.Latitude,
			Longitude:  r.Address.Longitude,
		}),
		AdditionalServices: datatypes.JSONSlice[string](append([]string{}, r.AdditionalServices...)),
		Version:            r.Version,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (m *ReservationMapper) ToEntities(rs []*model.Reservation) []*entity.Reservation {
	entities := make([]*entity.Reservation, len(rs))
	for i, r := range rs {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func (m *ReservationMapper) ServiceRequestToEntity(req model.ReservationServiceRequest) entity.ServiceRequest {
	return entity.ServiceRequest{
		Index:       req.Idx,
		RequestedAt: req.RequestedAt,
		RequestedBy: req.RequestedBy,
		Services:    append([]string{}, req.Services...),
		Status:      entity.ServiceRequestStatus(req.Status),
	}
}

func (m *ReservationMapper) ServiceRequestToModel(reservation *entity.Reservation, req *entity.ServiceRequest) *model.ReservationServiceRequest {
	return &model.ReservationServiceRequest{
		ReservationId: reservation.Id,
		Idx:           req.Index,
		RequestedAt:   req.RequestedAt,
		RequestedBy:   req.RequestedBy,
		Services:      datatypes.JSONSlice[string](append([]string{}, req.Services...)),
		Status:        string(req.Status),
	}
}

// PatchToColumns turns a patch into the column map for a conditional update.
// The version bump is added by the repository.
func (m *ReservationMapper) PatchToColumns(p entity.ReservationPatch) map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Status != nil {
		cols["status"] = string(*p.Status)
	}
	if p.CleanerId != nil {
		cols["cleaner_id"] = *p.CleanerId
	}
	if p.ServiceDates != nil {
		cols["service_dates"] = datatypes.JSONSlice[string](p.ServiceDates)
	}
	if p.ServiceTime != nil {
		cols["service_time"] = *p.ServiceTime
	}
	if p.DurationHours != nil {
		cols["duration_hours"] = *p.DurationHours
	}
	if p.IsLate != nil {
		cols["is_late"] = *p.IsLate
	}
	if p.CancellationReason != nil {
		cols["cancellation_reason"] = *p.CancellationReason
	}
	if p.AdditionalServices != nil {
		cols["additional_services"] = datatypes.JSONSlice[string](p.AdditionalServices)
	}
	return cols
}
