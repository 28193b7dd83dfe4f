// Package travel provides flight and hotel search tools backed by the
// Amadeus Self-Service APIs. Authentication uses the OAuth2 client
// credentials flow; the bearer token is cached per client with expiry
// checked on every use and refreshed five minutes early.
package travel

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/schema"
	"github.com/effective-security/agentic/tools"
)

const (
	// DefaultBaseURL is the Amadeus test environment.
	DefaultBaseURL = "https://test.api.amadeus.com"

	authPath        = "/v1/security/oauth2/token"
	flightsPath     = "/v2/shopping/flight-offers"
	hotelListPath   = "/v1/reference-data/locations/hotels/by-city"
	hotelOffersPath = "/v3/shopping/hotel-offers"

	// MaxOffers caps the number of offers returned to the model.
	MaxOffers = 5

	// tokenRefreshMargin refreshes the token before its actual expiry so
	// in-flight requests never race the deadline.
	tokenRefreshMargin = 5 * time.Minute
)

// TimeNowFn is replaceable in tests.
var TimeNowFn = time.Now

var iataCodeRe = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Client calls the Amadeus APIs. The OAuth2 token is scoped to the client
// instance, never shared process-wide.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates an Amadeus client. If the key or secret is empty, the
// AMADEUS_API_KEY and AMADEUS_API_SECRET environment variables are used.
func NewClient(apiKey, apiSecret string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("AMADEUS_API_KEY")
	}
	if apiSecret == "" {
		apiSecret = os.Getenv("AMADEUS_API_SECRET")
	}
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("travel: credentials are required, set AMADEUS_API_KEY and AMADEUS_API_SECRET")
	}
	c := &Client{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// bearerToken returns a valid access token, requesting a new one when the
// cached token is missing or within the refresh margin of expiry.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && TimeNowFn().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.apiKey)
	form.Set("client_secret", c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+authPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("travel: authentication failed: %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", errors.Wrap(err, "failed to decode token response")
	}
	if tok.AccessToken == "" {
		return "", errors.New("travel: empty access token in response")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = TimeNowFn().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenRefreshMargin)
	return c.token, nil
}

type apiError struct {
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && len(ae.Errors) > 0 && ae.Errors[0].Detail != "" {
			return errors.Newf("travel API returned %d: %s", resp.StatusCode, ae.Errors[0].Detail)
		}
		return errors.Newf("travel API returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to decode travel API response")
	}
	return nil
}

func validateIATA(name, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !iataCodeRe.MatchString(code) {
		return "", errors.Newf("%s must be a 3-letter IATA code, got %q", name, code)
	}
	return code, nil
}

func validateDate(name, value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return errors.Newf("%s must be in YYYY-MM-DD format, got %q", name, value)
	}
	return nil
}

// FlightsRequest represents the flight-search tool input.
type FlightsRequest struct {
	Origin        string `json:"origin" yaml:"origin" jsonschema:"title=origin,description=Origin airport IATA code such as JFK or LAX."`
	Destination   string `json:"destination" yaml:"destination" jsonschema:"title=destination,description=Destination airport IATA code."`
	DepartureDate string `json:"departure_date" yaml:"departure_date" jsonschema:"title=departure_date,description=Departure date in YYYY-MM-DD format."`
	ReturnDate    string `json:"return_date,omitempty" yaml:"return_date,omitempty" jsonschema:"title=return_date,description=Optional return date for a round trip."`
	Adults        int    `json:"adults,omitempty" yaml:"adults,omitempty" jsonschema:"title=adults,description=Number of adult passengers. Defaults to 1."`
}

// FlightSegment is one leg of an itinerary.
type FlightSegment struct {
	Carrier  string `json:"carrier" yaml:"carrier"`
	Number   string `json:"number" yaml:"number"`
	From     string `json:"from" yaml:"from"`
	DepartAt string `json:"depart_at" yaml:"depart_at"`
	To       string `json:"to" yaml:"to"`
	ArriveAt string `json:"arrive_at" yaml:"arrive_at"`
}

// FlightItinerary is the outbound or return portion of an offer.
type FlightItinerary struct {
	Direction string          `json:"direction" yaml:"direction"`
	Duration  string          `json:"duration" yaml:"duration"`
	Segments  []FlightSegment `json:"segments" yaml:"segments"`
}

// FlightOffer is a priced flight option.
type FlightOffer struct {
	Price       string            `json:"price" yaml:"price"`
	Currency    string            `json:"currency" yaml:"currency"`
	Itineraries []FlightItinerary `json:"itineraries" yaml:"itineraries"`
}

// FlightsResult represents the flight-search tool output.
type FlightsResult struct {
	Origin      string        `json:"origin" yaml:"origin"`
	Destination string        `json:"destination" yaml:"destination"`
	Offers      []FlightOffer `json:"offers" yaml:"offers"`
}

type flightsResponse struct {
	Data []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
		Itineraries []struct {
			Duration string `json:"duration"`
			Segments []struct {
				Departure struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
			} `json:"segments"`
		} `json:"itineraries"`
	} `json:"data"`
}

// FlightsTool searches flight offers between two airports.
type FlightsTool struct {
	client *Client
}

var _ tools.Tool[FlightsRequest, FlightsResult] = (*FlightsTool)(nil)

// NewFlights creates the flight-search tool.
func NewFlights(client *Client) *FlightsTool {
	return &FlightsTool{client: client}
}

func (t *FlightsTool) Name() string {
	return "search_flights"
}

func (t *FlightsTool) Description() string {
	return "Searches flight offers between two airports by date, returning prices and itineraries. Airports are 3-letter IATA codes."
}

func (t *FlightsTool) Schema() *schema.Schema {
	return schema.MustNew(FlightsRequest{})
}

func (t *FlightsTool) Run(ctx context.Context, req *FlightsRequest) (*FlightsResult, error) {
	origin, err := validateIATA("origin", req.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := validateIATA("destination", req.Destination)
	if err != nil {
		return nil, err
	}
	if err := validateDate("departure_date", req.DepartureDate); err != nil {
		return nil, err
	}
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}

	q := url.Values{}
	q.Set("originLocationCode", origin)
	q.Set("destinationLocationCode", destination)
	q.Set("departureDate", req.DepartureDate)
	q.Set("adults", strconv.Itoa(adults))
	q.Set("currencyCode", "USD")
	q.Set("max", strconv.Itoa(MaxOffers))
	if req.ReturnDate != "" {
		if err := validateDate("return_date", req.ReturnDate); err != nil {
			return nil, err
		}
		q.Set("returnDate", req.ReturnDate)
	}

	var res flightsResponse
	if err := t.client.get(ctx, flightsPath, q, &res); err != nil {
		return nil, err
	}

	result := &FlightsResult{
		Origin:      origin,
		Destination: destination,
	}
	for _, offer := range res.Data {
		if len(result.Offers) == MaxOffers {
			break
		}
		o := FlightOffer{
			Price:    offer.Price.Total,
			Currency: offer.Price.Currency,
		}
		for j, itin := range offer.Itineraries {
			direction := "outbound"
			if j > 0 {
				direction = "return"
			}
			fi := FlightItinerary{
				Direction: direction,
				Duration:  itin.Duration,
			}
			for _, seg := range itin.Segments {
				fi.Segments = append(fi.Segments, FlightSegment{
					Carrier:  seg.CarrierCode,
					Number:   seg.Number,
					From:     seg.Departure.IATACode,
					DepartAt: seg.Departure.At,
					To:       seg.Arrival.IATACode,
					ArriveAt: seg.Arrival.At,
				})
			}
			o.Itineraries = append(o.Itineraries, fi)
		}
		result.Offers = append(result.Offers, o)
	}
	return result, nil
}

func (t *FlightsTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// HotelsRequest represents the hotel-search tool input.
type HotelsRequest struct {
	CityCode     string `json:"city_code" yaml:"city_code" jsonschema:"title=city_code,description=City IATA code such as PAR for Paris or NYC for New York."`
	CheckInDate  string `json:"check_in_date" yaml:"check_in_date" jsonschema:"title=check_in_date,description=Check-in date in YYYY-MM-DD format."`
	CheckOutDate string `json:"check_out_date" yaml:"check_out_date" jsonschema:"title=check_out_date,description=Check-out date in YYYY-MM-DD format."`
	Adults       int    `json:"adults,omitempty" yaml:"adults,omitempty" jsonschema:"title=adults,description=Number of adult guests. Defaults to 1."`
}

// HotelOffer is a priced hotel option.
type HotelOffer struct {
	Name         string `json:"name" yaml:"name"`
	Price        string `json:"price" yaml:"price"`
	Currency     string `json:"currency" yaml:"currency"`
	RoomCategory string `json:"room_category,omitempty" yaml:"room_category,omitempty"`
	Beds         int    `json:"beds,omitempty" yaml:"beds,omitempty"`
	BedType      string `json:"bed_type,omitempty" yaml:"bed_type,omitempty"`
}

// HotelsResult represents the hotel-search tool output.
type HotelsResult struct {
	CityCode string       `json:"city_code" yaml:"city_code"`
	CheckIn  string       `json:"check_in" yaml:"check_in"`
	CheckOut string       `json:"check_out" yaml:"check_out"`
	Offers   []HotelOffer `json:"offers" yaml:"offers"`
}

type hotelListResponse struct {
	Data []struct {
		HotelID string `json:"hotelId"`
	} `json:"data"`
}

type hotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			Name string `json:"name"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
			Room struct {
				TypeEstimated struct {
					Category string `json:"category"`
					Beds     int    `json:"beds"`
					BedType  string `json:"bedType"`
				} `json:"typeEstimated"`
			} `json:"room"`
		} `json:"offers"`
	} `json:"data"`
}

// HotelsTool searches hotel offers in a city for a stay.
type HotelsTool struct {
	client *Client
}

var _ tools.Tool[HotelsRequest, HotelsResult] = (*HotelsTool)(nil)

// NewHotels creates the hotel-search tool.
func NewHotels(client *Client) *HotelsTool {
	return &HotelsTool{client: client}
}

func (t *HotelsTool) Name() string {
	return "search_hotels"
}

func (t *HotelsTool) Description() string {
	return "Searches hotel offers in a city for given check-in and check-out dates. Cities are 3-letter IATA codes like PAR or NYC."
}

func (t *HotelsTool) Schema() *schema.Schema {
	return schema.MustNew(HotelsRequest{})
}

func (t *HotelsTool) Run(ctx context.Context, req *HotelsRequest) (*HotelsResult, error) {
	cityCode, err := validateIATA("city_code", req.CityCode)
	if err != nil {
		return nil, err
	}
	if err := validateDate("check_in_date", req.CheckInDate); err != nil {
		return nil, err
	}
	if err := validateDate("check_out_date", req.CheckOutDate); err != nil {
		return nil, err
	}
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}

	// hotel IDs first, then offers for the closest few
	listQ := url.Values{}
	listQ.Set("cityCode", cityCode)
	listQ.Set("radius", "10")
	listQ.Set("radiusUnit", "KM")
	listQ.Set("hotelSource", "ALL")

	var list hotelListResponse
	if err := t.client.get(ctx, hotelListPath, listQ, &list); err != nil {
		return nil, err
	}

	var hotelIDs []string
	for _, h := range list.Data {
		if h.HotelID == "" {
			continue
		}
		hotelIDs = append(hotelIDs, h.HotelID)
		if len(hotelIDs) == MaxOffers {
			break
		}
	}
	if len(hotelIDs) == 0 {
		return nil, errors.Newf("no hotels found for city code %s: use IATA city codes like PAR, NYC, LON, TYO", cityCode)
	}

	offersQ := url.Values{}
	offersQ.Set("hotelIds", strings.Join(hotelIDs, ","))
	offersQ.Set("checkInDate", req.CheckInDate)
	offersQ.Set("checkOutDate", req.CheckOutDate)
	offersQ.Set("adults", strconv.Itoa(adults))
	offersQ.Set("currency", "USD")

	var offers hotelOffersResponse
	if err := t.client.get(ctx, hotelOffersPath, offersQ, &offers); err != nil {
		return nil, err
	}

	result := &HotelsResult{
		CityCode: cityCode,
		CheckIn:  req.CheckInDate,
		CheckOut: req.CheckOutDate,
	}
	for _, h := range offers.Data {
		if len(result.Offers) == MaxOffers {
			break
		}
		offer := HotelOffer{
			Name: h.Hotel.Name,
		}
		if len(h.Offers) > 0 {
			o := h.Offers[0]
			offer.Price = o.Price.Total
			offer.Currency = o.Price.Currency
			offer.RoomCategory = o.Room.TypeEstimated.Category
			offer.Beds = o.Room.TypeEstimated.Beds
			offer.BedType = o.Room.TypeEstimated.BedType
		}
		result.Offers = append(result.Offers, offer)
	}
	return result, nil
}

func (t *HotelsTool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}

// Tools returns the travel tools sharing one client and token cache.
func Tools(client *Client) []tools.ITool {
	return []tools.ITool{
		NewFlights(client),
		NewHotels(client),
	}
}
