package travel_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/effective-security/agentic/tools/travel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAmadeus serves the auth, flight and hotel endpoints.
type fakeAmadeus struct {
	srv        *httptest.Server
	authCalls  atomic.Int32
	flightBody string
	listBody   string
	offersBody string
}

func newFakeAmadeus(t *testing.T) *fakeAmadeus {
	t.Helper()
	f := &fakeAmadeus{
		flightBody: `{"data": []}`,
		listBody:   `{"data": []}`,
		offersBody: `{"data": []}`,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/security/oauth2/token":
			f.authCalls.Add(1)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, "test-key", r.PostForm.Get("client_id"))
			assert.Equal(t, "test-secret", r.PostForm.Get("client_secret"))
			_, _ = w.Write([]byte(`{"access_token": "tok-1", "expires_in": 1799}`))
		case "/v2/shopping/flight-offers":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(f.flightBody))
		case "/v1/reference-data/locations/hotels/by-city":
			_, _ = w.Write([]byte(f.listBody))
		case "/v3/shopping/hotel-offers":
			_, _ = w.Write([]byte(f.offersBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeAmadeus) *travel.Client {
	t.Helper()
	client, err := travel.NewClient("test-key", "test-secret", travel.WithBaseURL(f.srv.URL))
	require.NoError(t, err)
	return client
}

func Test_SearchFlights(t *testing.T) {
	f := newFakeAmadeus(t)
	f.flightBody = `{
		"data": [
			{
				"price": {"total": "423.50", "currency": "USD"},
				"itineraries": [
					{
						"duration": "PT7H30M",
						"segments": [
							{
								"departure": {"iataCode": "JFK", "at": "2025-07-01T18:00:00"},
								"arrival": {"iataCode": "LHR", "at": "2025-07-02T06:30:00"},
								"carrierCode": "BA",
								"number": "112"
							}
						]
					},
					{
						"duration": "PT8H10M",
						"segments": [
							{
								"departure": {"iataCode": "LHR", "at": "2025-07-08T10:00:00"},
								"arrival": {"iataCode": "JFK", "at": "2025-07-08T13:10:00"},
								"carrierCode": "BA",
								"number": "117"
							}
						]
					}
				]
			}
		]
	}`

	tool := travel.NewFlights(newTestClient(t, f))
	assert.Equal(t, "search_flights", tool.Name())

	res, err := tool.Run(t.Context(), &travel.FlightsRequest{
		Origin:        "jfk",
		Destination:   "LHR",
		DepartureDate: "2025-07-01",
		ReturnDate:    "2025-07-08",
	})
	require.NoError(t, err)
	assert.Equal(t, "JFK", res.Origin)
	assert.Equal(t, "LHR", res.Destination)
	require.Len(t, res.Offers, 1)

	offer := res.Offers[0]
	assert.Equal(t, "423.50", offer.Price)
	assert.Equal(t, "USD", offer.Currency)
	require.Len(t, offer.Itineraries, 2)
	assert.Equal(t, "outbound", offer.Itineraries[0].Direction)
	assert.Equal(t, "return", offer.Itineraries[1].Direction)
	require.Len(t, offer.Itineraries[0].Segments, 1)
	seg := offer.Itineraries[0].Segments[0]
	assert.Equal(t, "BA", seg.Carrier)
	assert.Equal(t, "112", seg.Number)
	assert.Equal(t, "JFK", seg.From)
	assert.Equal(t, "LHR", seg.To)
}

func Test_SearchFlights_Validation(t *testing.T) {
	tool := travel.NewFlights(newTestClient(t, newFakeAmadeus(t)))
	ctx := t.Context()

	_, err := tool.Run(ctx, &travel.FlightsRequest{Origin: "New York", Destination: "LHR", DepartureDate: "2025-07-01"})
	assert.EqualError(t, err, `origin must be a 3-letter IATA code, got "NEW YORK"`)

	_, err = tool.Run(ctx, &travel.FlightsRequest{Origin: "JFK", Destination: "LHR", DepartureDate: "07/01/2025"})
	assert.EqualError(t, err, `departure_date must be in YYYY-MM-DD format, got "07/01/2025"`)

	_, err = tool.Run(ctx, &travel.FlightsRequest{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-07-01", ReturnDate: "soon"})
	assert.EqualError(t, err, `return_date must be in YYYY-MM-DD format, got "soon"`)
}

func Test_TokenCache(t *testing.T) {
	t.Cleanup(func() { travel.TimeNowFn = time.Now })
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	travel.TimeNowFn = func() time.Time { return now }

	f := newFakeAmadeus(t)
	tool := travel.NewFlights(newTestClient(t, f))

	req := &travel.FlightsRequest{Origin: "JFK", Destination: "LHR", DepartureDate: "2025-07-01"}

	_, err := tool.Run(t.Context(), req)
	require.NoError(t, err)
	_, err = tool.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.authCalls.Load(), "token must be reused while valid")

	// expires_in 1799s with a 5 minute early refresh: valid just under 25 minutes
	now = now.Add(20 * time.Minute)
	_, err = tool.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.authCalls.Load())

	now = now.Add(10 * time.Minute)
	_, err = tool.Run(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.authCalls.Load(), "expired token must be refreshed")
}

func Test_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := travel.NewClient("bad", "bad", travel.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = travel.NewFlights(client).Run(t.Context(), &travel.FlightsRequest{
		Origin: "JFK", Destination: "LHR", DepartureDate: "2025-07-01",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "travel: authentication failed: 401")
}

func Test_SearchHotels(t *testing.T) {
	f := newFakeAmadeus(t)
	f.listBody = `{"data": [{"hotelId": "HLPAR123"}, {"hotelId": "HLPAR456"}]}`
	f.offersBody = `{
		"data": [
			{
				"hotel": {"name": "Grand Hotel"},
				"offers": [
					{
						"price": {"total": "540.00", "currency": "USD"},
						"room": {"typeEstimated": {"category": "DELUXE_ROOM", "beds": 1, "bedType": "KING"}}
					}
				]
			}
		]
	}`

	tool := travel.NewHotels(newTestClient(t, f))
	assert.Equal(t, "search_hotels", tool.Name())

	res, err := tool.Run(t.Context(), &travel.HotelsRequest{
		CityCode:     "par",
		CheckInDate:  "2025-07-01",
		CheckOutDate: "2025-07-05",
		Adults:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, "PAR", res.CityCode)
	require.Len(t, res.Offers, 1)
	assert.Equal(t, "Grand Hotel", res.Offers[0].Name)
	assert.Equal(t, "540.00", res.Offers[0].Price)
	assert.Equal(t, "DELUXE_ROOM", res.Offers[0].RoomCategory)
	assert.Equal(t, 1, res.Offers[0].Beds)
	assert.Equal(t, "KING", res.Offers[0].BedType)
}

func Test_SearchHotels_NoHotels(t *testing.T) {
	f := newFakeAmadeus(t)

	tool := travel.NewHotels(newTestClient(t, f))
	_, err := tool.Run(t.Context(), &travel.HotelsRequest{
		CityCode:     "XXX",
		CheckInDate:  "2025-07-01",
		CheckOutDate: "2025-07-05",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hotels found for city code XXX")
}

func Test_APIErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/security/oauth2/token" {
			_, _ = w.Write([]byte(`{"access_token": "tok-1", "expires_in": 1799}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors": [{"detail": "Date/Time is in the past"}]}`))
	}))
	defer srv.Close()

	client, err := travel.NewClient("k", "s", travel.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = travel.NewFlights(client).Run(t.Context(), &travel.FlightsRequest{
		Origin: "JFK", Destination: "LHR", DepartureDate: "2020-01-01",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "travel API returned 400: Date/Time is in the past")
}

func Test_NewClient_RequiresCredentials(t *testing.T) {
	t.Setenv("AMADEUS_API_KEY", "")
	t.Setenv("AMADEUS_API_SECRET", "")
	_, err := travel.NewClient("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials are required")

	t.Setenv("AMADEUS_API_KEY", "envkey")
	t.Setenv("AMADEUS_API_SECRET", "envsecret")
	client, err := travel.NewClient("", "")
	require.NoError(t, err)
	require.NotNil(t, client)

	list := travel.Tools(client)
	require.Len(t, list, 2)
}
