package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ListingService owns the listing lifecycle and its quota charge.
type ListingService interface {
	// Create checks the owner's entitlement and creates the listing.
	// The quota charge and the listing insert commit as one unit, so
	// two concurrent calls against a single remaining slot yield
	// exactly one listing.
	Create(ctx context.Context, l *model.Listing) (*model.Listing, error)
	Get(ctx context.Context, id int64) (*model.Listing, error)
	RecordView(ctx context.Context, id int64) error
	// Approve resolves moderation; approved=false rejects. The quota
	// charged at creation is not refunded either way.
	Approve(ctx context.Context, id int64, approved bool) (*model.Listing, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	// ImageUploadURL returns a presigned PUT URL and the storage path
	// for one listing image.
	ImageUploadURL(ctx context.Context, accountID, filename string) (url, storagePath string, err error)
	// ImageURL returns a presigned GET URL for a stored image.
	ImageURL(ctx context.Context, storagePath string) (string, error)
}

type listingService struct {
	listings      repository.ListingRepository
	accounts      repository.AccountRepository
	referral      ReferralService
	events        *Events
	presignClient *s3.PresignClient
	bucket        string
	logger        zerolog.Logger
}

// NewListingService creates a new ListingService with a scoped logger.
func NewListingService(
	listings repository.ListingRepository,
	accounts repository.AccountRepository,
	referral ReferralService,
	events *Events,
	s3Client *s3.Client,
	bucket string,
	logger zerolog.Logger,
) ListingService {
	var presign *s3.PresignClient
	if s3Client != nil {
		presign = s3.NewPresignClient(s3Client)
	}
	return &listingService{
		listings:      listings,
		accounts:      accounts,
		referral:      referral,
		events:        events,
		presignClient: presign,
		bucket:        bucket,
		logger:        logger.With().Str("service", "ListingService").Logger(),
	}
}

func (s *listingService) Create(ctx context.Context, l *model.Listing) (*model.Listing, error) {
	acc, err := s.accounts.GetByID(ctx, l.CreatedBy)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", l.CreatedBy).Msg("Failed to fetch account for listing creation")
		return nil, err
	}
	if ent := acc.CanPost(time.Now()); !ent.Allowed {
		if ent.Reason == model.ReasonPostingLimitReached {
			return nil, repository.ErrPostingLimitReached
		}
		return nil, fmt.Errorf("%w: %s", ErrPlanExpired, ent.Reason)
	}

	// The snapshot check above can go stale under concurrent
	// creations; the store re-checks the quota guard inside the
	// insert transaction.
	if err := s.listings.CreateWithQuota(ctx, l); err != nil {
		s.logger.Error().Err(err).Str("account_id", l.CreatedBy).Msg("Failed to create listing")
		return nil, err
	}

	if err := s.referral.RewardFirstUpload(ctx, l.CreatedBy); err != nil {
		// The listing stands; the flag guard makes a later retry safe.
		s.logger.Error().Err(err).Str("account_id", l.CreatedBy).Msg("First-upload reward failed after listing creation")
	}
	s.events.ListingChanged(ctx, "listing.created", l)
	return l, nil
}

func (s *listingService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("listing_id", id).Msg("Failed to fetch listing")
		return nil, err
	}
	return l, nil
}

func (s *listingService) RecordView(ctx context.Context, id int64) error {
	if err := s.listings.IncrementViewCount(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("listing_id", id).Msg("Failed to record listing view")
		return err
	}
	return nil
}

func (s *listingService) Approve(ctx context.Context, id int64, approved bool) (*model.Listing, error) {
	l, err := s.listings.SetApproval(ctx, id, approved)
	if err != nil {
		s.logger.Error().Err(err).Int64("listing_id", id).Msg("Failed to set listing approval")
		return nil, err
	}
	event := "listing.approved"
	if !approved {
		event = "listing.rejected"
	}
	s.events.ListingChanged(ctx, event, l)
	return l, nil
}

func (s *listingService) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.listings.DeactivateExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to deactivate expired listings")
		return 0, err
	}
	if count > 0 {
		s.logger.Info().Int64("count", count).Msg("Deactivated expired listings")
	}
	return count, nil
}

func (s *listingService) ImageUploadURL(ctx context.Context, accountID, filename string) (string, string, error) {
	if s.presignClient == nil {
		return "", "", fmt.Errorf("image storage is not configured")
	}
	storagePath := path.Join("listings", accountID, uuid.NewString()+path.Ext(filename))
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", storagePath).Msg("Failed to presign image upload")
		return "", "", fmt.Errorf("presign image upload: %w", err)
	}
	return req.URL, storagePath, nil
}

func (s *listingService) ImageURL(ctx context.Context, storagePath string) (string, error) {
	if s.presignClient == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", storagePath).Msg("Failed to presign image download")
		return "", fmt.Errorf("presign image download: %w", err)
	}
	return req.URL, nil
}
