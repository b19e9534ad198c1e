package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scandex/internal/port"
)

// MockPDFService is a mock implementation of port.PDFService.
type MockPDFService struct {
	mock.Mock
}

func (m *MockPDFService) MergePages(ctx context.Context, picks []port.PagePick, outputPath string) error {
	args := m.Called(ctx, picks, outputPath)
	return args.Error(0)
}

func (m *MockPDFService) GetPageCount(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}

func (m *MockPDFService) AddMetadata(ctx context.Context, path string, properties map[string]string) error {
	args := m.Called(ctx, path, properties)
	return args.Error(0)
}

func (m *MockPDFService) OptimizePDF(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockPDFService) GeneratePageThumbnail(ctx context.Context, path string, pageNumber int, size port.ThumbnailSize) (string, error) {
	args := m.Called(ctx, path, pageNumber, size)
	return args.String(0), args.Error(1)
}

func (m *MockPDFService) RotatePages(ctx context.Context, path string, pageNumbers []int, degrees int) error {
	args := m.Called(ctx, path, pageNumbers, degrees)
	return args.Error(0)
}

func (m *MockPDFService) SplitPDF(ctx context.Context, path, outputDir string) ([]string, error) {
	args := m.Called(ctx, path, outputDir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPDFService) ExtractPages(ctx context.Context, path string, pageNumbers []int, outputPath string) error {
	args := m.Called(ctx, path, pageNumbers, outputPath)
	return args.Error(0)
}
