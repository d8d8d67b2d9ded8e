package travelapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// StaticService provides deterministic travel data for local development when no backend is configured.
type StaticService struct {
	provinces   []Province
	cities      []City
	themes      []Theme
	constraints []Constraint
	visits      atomic.Int64
}

// NewStaticService constructs the built-in sample dataset.
func NewStaticService() *StaticService {
	s := &StaticService{
		provinces: []Province{
			{No: 1, Name: "서울특별시"},
			{No: 2, Name: "부산광역시"},
			{No: 3, Name: "강원특별자치도"},
			{No: 4, Name: "경상북도"},
			{No: 5, Name: "전라남도"},
			{No: 6, Name: "제주특별자치도"},
		},
		cities: []City{
			{No: 101, ProvinceNo: 1, Name: "종로구", Description: "궁궐과 한옥 골목이 이어지는 도심"},
			{No: 102, ProvinceNo: 1, Name: "마포구", Description: "한강과 홍대 거리의 활기"},
			{No: 103, ProvinceNo: 1, Name: "성동구", Description: "성수동 카페와 서울숲"},
			{No: 201, ProvinceNo: 2, Name: "해운대구", Description: "해변과 달맞이길"},
			{No: 202, ProvinceNo: 2, Name: "중구", Description: "남포동 시장과 용두산 공원"},
			{No: 301, ProvinceNo: 3, Name: "강릉시", Description: "커피 거리와 경포 바다"},
			{No: 302, ProvinceNo: 3, Name: "속초시", Description: "설악산과 중앙시장"},
			{No: 303, ProvinceNo: 3, Name: "춘천시", Description: "호수와 닭갈비 골목"},
			{No: 401, ProvinceNo: 4, Name: "경주시", Description: "신라 천년의 유적"},
			{No: 402, ProvinceNo: 4, Name: "안동시", Description: "하회마을과 선비 문화"},
			{No: 501, ProvinceNo: 5, Name: "여수시", Description: "밤바다와 케이블카"},
			{No: 502, ProvinceNo: 5, Name: "순천시", Description: "순천만 습지와 국가정원"},
			{No: 601, ProvinceNo: 6, Name: "제주시", Description: "오름과 동문시장"},
			{No: 602, ProvinceNo: 6, Name: "서귀포시", Description: "폭포와 올레길"},
		},
		themes: []Theme{
			{No: 1, Name: "맛집 탐방"},
			{No: 2, Name: "자연 힐링"},
			{No: 3, Name: "역사 문화"},
			{No: 4, Name: "액티비티"},
			{No: 5, Name: "카페 투어"},
		},
		constraints: []Constraint{
			{No: 1, Name: "대중교통만 이용"},
			{No: 2, Name: "예산 5만원 이하"},
			{No: 3, Name: "도보 이동만"},
			{No: 4, Name: "당일치기"},
			{No: 5, Name: "비 오는 날"},
		},
	}
	s.visits.Store(12345)
	return s
}

func (s *StaticService) Provinces(ctx context.Context) ([]Province, error) {
	return append([]Province(nil), s.provinces...), nil
}

func (s *StaticService) Cities(ctx context.Context, provinceNo No) ([]City, error) {
	if provinceNo == 0 {
		return nil, fmt.Errorf("%w: provinceNo", ErrMissingParam)
	}
	out := make([]City, 0, 4)
	for _, c := range s.cities {
		if c.ProvinceNo == provinceNo {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *StaticService) Themes(ctx context.Context) ([]Theme, error) {
	return append([]Theme(nil), s.themes...), nil
}

func (s *StaticService) Constraints(ctx context.Context) ([]Constraint, error) {
	return append([]Constraint(nil), s.constraints...), nil
}

// TravelCourse builds a sample itinerary mixing string-encoded and object slots, like the live backend.
func (s *StaticService) TravelCourse(ctx context.Context, query CourseQuery) (CourseSlots, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	city := s.cityName(query.CityNo)
	theme := s.themeName(query.ThemeNo)
	constraint := s.constraintName(query.ConstraintNo)

	stops := []struct{ name, description string }{
		{city + " 아침 시장", fmt.Sprintf("%s 테마로 현지 아침 식사를 즐겨요.", theme)},
		{city + " 전망대", "도시 전체를 내려다보며 하루 동선을 확인해요."},
		{city + " 골목 산책", fmt.Sprintf("'%s' 조건에 맞춰 천천히 걸어요.", constraint)},
		{city + " 로컬 카페", "잠시 쉬어가며 여행 기록을 남겨요."},
		{city + " 노을 명소", "해 질 녘 풍경으로 하루를 마무리해요."},
	}

	slots := CourseSlots{}
	for i, stop := range stops {
		obj, err := json.Marshal(map[string]string{"name": stop.name, "description": stop.description})
		if err != nil {
			return nil, err
		}
		if i%2 == 0 {
			// even slots arrive JSON-encoded as strings
			encoded, err := json.Marshal(string(obj))
			if err != nil {
				return nil, err
			}
			obj = encoded
		}
		slots[SlotKey(i+1)] = obj
	}
	return slots, nil
}

// TotalVisits returns a counter that grows with each call.
func (s *StaticService) TotalVisits(ctx context.Context) (int64, error) {
	return s.visits.Add(1), nil
}

func (s *StaticService) cityName(no No) string {
	for _, c := range s.cities {
		if c.No == no {
			return c.Name
		}
	}
	return "여행지"
}

func (s *StaticService) themeName(no No) string {
	for _, t := range s.themes {
		if t.No == no {
			return t.Name
		}
	}
	return "자유"
}

func (s *StaticService) constraintName(no No) string {
	for _, c := range s.constraints {
		if c.No == no {
			return c.Name
		}
	}
	return "제약 없음"
}
