package lottery

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// TicketRange: 플레이어 한 명의 연속 티켓 구간 [Start, End).
// 구간 길이 = 해당 기간 활동량(공유 수)이므로 당첨 확률이 활동 비율과
// 정확히 비례한다.
type TicketRange struct {
	PlayerID string `json:"playerId"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Tickets  int64  `json:"tickets"`
}

// Partition: [0, TotalTickets) 의 누적 분할. 입력 순서(player_id 오름차순)가
// 곧 구간 순서라 같은 입력이면 항상 같은 분할이 나온다.
type Partition struct {
	Ranges       []TicketRange `json:"ranges"`
	TotalTickets int64         `json:"totalTickets"`
}

// Participant: 분할 입력 한 건.
type Participant struct {
	PlayerID string
	Tickets  int64
}

// BuildPartition: 참가자 목록을 누적 티켓 분할로 바꾼다.
// 입력은 player_id 오름차순이어야 하며, 티켓 0 이하는 제외된다.
func BuildPartition(participants []Participant) Partition {
	var p Partition
	var cursor int64
	for _, in := range participants {
		if in.Tickets <= 0 {
			continue
		}
		p.Ranges = append(p.Ranges, TicketRange{
			PlayerID: in.PlayerID,
			Start:    cursor,
			End:      cursor + in.Tickets,
			Tickets:  in.Tickets,
		})
		cursor += in.Tickets
	}
	p.TotalTickets = cursor
	return p
}

// OwnerOf: 티켓 번호의 소유 구간을 prefix-sum 이진 탐색으로 찾는다.
func (p Partition) OwnerOf(ticket int64) (TicketRange, bool) {
	if ticket < 0 || ticket >= p.TotalTickets {
		return TicketRange{}, false
	}
	idx := sort.Search(len(p.Ranges), func(i int) bool {
		return p.Ranges[i].End > ticket
	})
	if idx >= len(p.Ranges) {
		return TicketRange{}, false
	}
	return p.Ranges[idx], true
}

// drawTicket: [0, total) 균등 분포 티켓 번호.
// 복구 가능한 추첨이 아니라 공정한 추첨이 목적이므로 암호학적 난수원을 쓴다.
func drawTicket(total int64) (int64, error) {
	if total <= 0 {
		return 0, fmt.Errorf("empty ticket space")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(total))
	if err != nil {
		return 0, fmt.Errorf("draw ticket failed: %w", err)
	}
	return n.Int64(), nil
}

// Winner: 한 상품 자리의 추첨 결과.
type Winner struct {
	PlayerID     string
	Placement    int
	TicketNumber int64
}

// DrawWinners: prizeCount 개 자리를 비복원으로 추첨한다.
// 앞 자리 당첨자는 다음 자리의 분할에서 제외되며, 매 자리마다 남은
// 참가자로 분할을 다시 만든다. 참가자보다 자리가 많으면 남은 자리는 비운다.
func DrawWinners(p Partition, prizeCount int) ([]Winner, error) {
	remaining := make([]Participant, 0, len(p.Ranges))
	for _, r := range p.Ranges {
		remaining = append(remaining, Participant{PlayerID: r.PlayerID, Tickets: r.Tickets})
	}

	var winners []Winner
	for placement := 1; placement <= prizeCount && len(remaining) > 0; placement++ {
		round := BuildPartition(remaining)
		ticket, err := drawTicket(round.TotalTickets)
		if err != nil {
			return nil, err
		}
		owner, ok := round.OwnerOf(ticket)
		if !ok {
			return nil, fmt.Errorf("ticket %d outside partition of %d", ticket, round.TotalTickets)
		}

		winners = append(winners, Winner{
			PlayerID:     owner.PlayerID,
			Placement:    placement,
			TicketNumber: ticket,
		})

		next := remaining[:0]
		for _, in := range remaining {
			if in.PlayerID != owner.PlayerID {
				next = append(next, in)
			}
		}
		remaining = next
	}
	return winners, nil
}
