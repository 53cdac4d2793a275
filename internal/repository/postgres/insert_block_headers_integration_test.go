package postgres

import "github.com/goodnatureofminers/evmsync-backend/internal/model"

func (s *RepositorySuite) TestInsertReplayedBatchInsertsNothing() {
	batch := []model.InsertBlockHeader{
		newInsertHeader(2, 2006),
		newInsertHeader(2, 2007),
		newInsertHeader(2, 2008),
		newInsertHeader(2, 2009),
	}

	inserted, err := s.repo.InsertBlockHeaders(s.testCtx, batch)
	s.Require().NoError(err)
	s.Require().EqualValues(4, inserted)

	inserted, err = s.repo.InsertBlockHeaders(s.testCtx, batch)
	s.Require().NoError(err)
	s.Require().Zero(inserted)

	header, err := s.repo.BlockHeaderByNumber(s.testCtx, 2, 2006)
	s.Require().NoError(err)
	s.Require().NotNil(header)
	s.Require().Equal("0xmock_2_2006", header.Hash)
}

func (s *RepositorySuite) TestInsertSkipsOverlappingRows() {
	first := []model.InsertBlockHeader{
		newInsertHeader(1, 100),
		newInsertHeader(1, 101),
	}
	inserted, err := s.repo.InsertBlockHeaders(s.testCtx, first)
	s.Require().NoError(err)
	s.Require().EqualValues(2, inserted)

	overlapping := []model.InsertBlockHeader{
		newInsertHeader(1, 101),
		newInsertHeader(1, 102),
	}
	inserted, err = s.repo.InsertBlockHeaders(s.testCtx, overlapping)
	s.Require().NoError(err)
	s.Require().EqualValues(1, inserted)

	latest, err := s.repo.LatestBlockHeader(s.testCtx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Require().EqualValues(102, latest.Number)
}

func (s *RepositorySuite) TestInsertSkipsHashConflicts() {
	inserted, err := s.repo.InsertBlockHeaders(s.testCtx, []model.InsertBlockHeader{newInsertHeader(1, 100)})
	s.Require().NoError(err)
	s.Require().EqualValues(1, inserted)

	conflicting := newInsertHeader(1, 200)
	conflicting.Hash = "0xmock_1_100"

	inserted, err = s.repo.InsertBlockHeaders(s.testCtx, []model.InsertBlockHeader{conflicting})
	s.Require().NoError(err)
	s.Require().Zero(inserted)

	header, err := s.repo.BlockHeaderByNumber(s.testCtx, 1, 200)
	s.Require().NoError(err)
	s.Require().Nil(header)
}

func (s *RepositorySuite) TestInsertEmptyBatch() {
	inserted, err := s.repo.InsertBlockHeaders(s.testCtx, nil)
	s.Require().NoError(err)
	s.Require().Zero(inserted)
}
