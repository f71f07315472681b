package board

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/request"
)

const tempIDPrefix = "tmp-"

func newTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// Move changes the status of one card. The local copy is patched before the
// persist call; if the persist fails the card returns to its previous status
// and the error is returned. Moving a card within its own column does nothing.
func (s *Synchronizer) Move(ctx context.Context, id int64, to request.Status) error {
	if !to.Valid() {
		return internal.NewValidationFieldError("status", "unknown status "+string(to), internal.ErrCodeValidationFailed)
	}
	key := strconv.FormatInt(id, 10)

	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return internal.ErrRequestNotFound
	}
	prior := s.items[i]
	if prior.Status == to {
		s.mu.Unlock()
		return nil
	}
	if s.policy != nil {
		if err := request.CheckTransition(s.policy, prior.Status, to, s.role); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.items[i].Status = to
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	saved, err := s.persister.UpdateStatus(ctx, id, to)
	if err != nil {
		s.logger.Error("board move failed", "request_id", id, "from", prior.Status, "to", to, "error", err)
		s.rollbackMove(prior, to)
		return err
	}

	if saved != nil {
		s.reconcile(key, *saved)
	}
	return nil
}

// rollbackMove restores the card only if it still carries the optimistic
// status; a full replace that landed meanwhile wins.
func (s *Synchronizer) rollbackMove(prior request.Request, applied request.Status) {
	s.mu.Lock()
	i := s.indexLocked(prior.Key())
	if i < 0 || s.items[i].Status != applied {
		s.mu.Unlock()
		return
	}
	s.items[i] = prior
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn("board move rolled back", "request_id", prior.ID, "status", prior.Status)
	s.notify(snap)
}

// Create appends a provisional card, persists it, and swaps the provisional
// card for the server's copy. A failed create removes the provisional card.
func (s *Synchronizer) Create(ctx context.Context, dto request.CreateRequestDTO) (*request.Request, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	provisional := request.Request{
		TempID:               s.newTempID(),
		Subject:              dto.Subject,
		Description:          dto.Description,
		Type:                 request.Type(dto.Type),
		Status:               request.Status(dto.Status),
		EquipmentID:          dto.EquipmentID.Int64(),
		AssignedTechnicianID: dto.AssignedTechnicianID.Ptr(),
		MaintenanceTeamID:    dto.MaintenanceTeamID.Ptr(),
		ScheduledDate:        dto.ScheduledDate.Time,
		DurationHours:        dto.DurationHours,
	}

	s.mu.Lock()
	s.items = append(s.items, provisional)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	saved, err := s.persister.Create(ctx, dto)
	if err == nil && saved == nil {
		err = internal.NewPersistenceError("create returned no request", nil)
	}
	if err != nil {
		s.logger.Error("board create failed", "temp_id", provisional.TempID, "error", err)
		s.remove(provisional.TempID)
		return nil, err
	}

	s.reconcile(provisional.TempID, *saved)
	return saved, nil
}

// Delete removes the card at once and puts it back at its old position if
// the server refuses.
func (s *Synchronizer) Delete(ctx context.Context, id int64) error {
	key := strconv.FormatInt(id, 10)

	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return internal.ErrRequestNotFound
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if err := s.persister.Delete(ctx, id); err != nil {
		s.logger.Error("board delete failed", "request_id", id, "error", err)
		s.restore(i, removed)
		return err
	}
	return nil
}

func (s *Synchronizer) restore(at int, r request.Request) {
	s.mu.Lock()
	if s.indexLocked(r.Key()) >= 0 {
		s.mu.Unlock()
		return
	}
	if at > len(s.items) {
		at = len(s.items)
	}
	s.items = append(s.items, request.Request{})
	copy(s.items[at+1:], s.items[at:])
	s.items[at] = r
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn("board delete rolled back", "request_id", r.ID)
	s.notify(snap)
}

func (s *Synchronizer) remove(key string) {
	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn("board create rolled back", "temp_id", key)
	s.notify(snap)
}

// reconcile writes the server's copy over the card with the given key.
func (s *Synchronizer) reconcile(key string, saved request.Request) {
	saved.TempID = ""

	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items[i] = saved
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}
