package reservation

import (
	"fmt"
	"strings"
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

func actionRef(r *entity.Reservation) string {
	return fmt.Sprintf("/reservations/%s", r.Id)
}

var statusTitles = map[entity.ReservationStatus]struct{ title, message string }{
	entity.ReservationStatusOnTheWay:  {"Your cleaner is on the way", "The cleaner has left for your address."},
	entity.ReservationStatusCleaning:  {"Cleaning has started", "The cleaner has started working."},
	entity.ReservationStatusCompleted: {"Cleaning completed", "Your cleaning is complete. Thank you for booking with us."},
}

func statusChangedNotice(r *entity.Reservation, to entity.ReservationStatus) entity.NotificationIntent {
	text := statusTitles[to]
	return entity.NotificationIntent{
		UserId:    r.CustomerId,
		Title:     text.title,
		Message:   text.message,
		Kind:      entity.NotificationKindStatusChanged,
		ActionRef: actionRef(r),
	}
}

func cancelledNotice(r *entity.Reservation, to uuid.UUID, reason string) entity.NotificationIntent {
	msg := fmt.Sprintf("The reservation on %s was cancelled.", r.FirstServiceDate())
	if reason != "" {
		msg = fmt.Sprintf("%s Reason: %s", msg, reason)
	}
	return entity.NotificationIntent{
		UserId:    to,
		Title:     "Reservation cancelled",
		Message:   msg,
		Kind:      entity.NotificationKindCancelled,
		ActionRef: actionRef(r),
	}
}

func rescheduledNotice(r *entity.Reservation, to uuid.UUID, dates []string, serviceTime string) entity.NotificationIntent {
	return entity.NotificationIntent{
		UserId:    to,
		Title:     "Reservation rescheduled",
		Message:   fmt.Sprintf("The reservation moved to %s at %s.", strings.Join(dates, ", "), serviceTime),
		Kind:      entity.NotificationKindRescheduled,
		ActionRef: actionRef(r),
	}
}

func lateNotice(r *entity.Reservation, report *LateReport, loc *time.Location) entity.NotificationIntent {
	return entity.NotificationIntent{
		UserId: r.CustomerId,
		Title:  "Your cleaner is running late",
		Message: fmt.Sprintf("The cleaner is %d minutes late. Cleaning now runs %s-%s (%.2f hours).",
			report.DelayMinutes,
			report.WindowStart.In(loc).Format(TimeLayout),
			report.WindowEnd.In(loc).Format(TimeLayout),
			report.NewDuration),
		Kind:      entity.NotificationKindLateArrival,
		ActionRef: actionRef(r),
	}
}

func serviceRequestedNotice(r *entity.Reservation, to uuid.UUID, services []string) entity.NotificationIntent {
	return entity.NotificationIntent{
		UserId:    to,
		Title:     "Additional services requested",
		Message:   fmt.Sprintf("Requested: %s.", strings.Join(services, ", ")),
		Kind:      entity.NotificationKindServiceRequest,
		ActionRef: actionRef(r),
	}
}

func serviceResolvedNotice(r *entity.Reservation, req entity.ServiceRequest) entity.NotificationIntent {
	title := "Additional services approved"
	if req.Status == entity.ServiceRequestStatusDeclined {
		title = "Additional services declined"
	}
	return entity.NotificationIntent{
		UserId:    req.RequestedBy,
		Title:     title,
		Message:   fmt.Sprintf("Your request for %s was %s.", strings.Join(req.Services, ", "), req.Status),
		Kind:      entity.NotificationKindServiceResolved,
		ActionRef: actionRef(r),
	}
}
