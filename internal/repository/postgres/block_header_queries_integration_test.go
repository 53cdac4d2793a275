package postgres

func (s *RepositorySuite) TestLatestBlockHeaderPerChain() {
	s.seedContiguous(1, 1000, 1005)
	s.seedContiguous(3, 5000, 5000)

	latest, err := s.repo.LatestBlockHeader(s.testCtx, 1)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Require().EqualValues(1005, latest.Number)
	s.Require().EqualValues(1, latest.ChainID)

	latest, err = s.repo.LatestBlockHeader(s.testCtx, 3)
	s.Require().NoError(err)
	s.Require().NotNil(latest)
	s.Require().EqualValues(5000, latest.Number)

	latest, err = s.repo.LatestBlockHeader(s.testCtx, 42)
	s.Require().NoError(err)
	s.Require().Nil(latest)
}

func (s *RepositorySuite) TestBlockHeaderByNumberScopedToChain() {
	s.seedContiguous(1, 1000, 1002)
	s.seedContiguous(2, 1000, 1002)

	header, err := s.repo.BlockHeaderByNumber(s.testCtx, 1, 1001)
	s.Require().NoError(err)
	s.Require().NotNil(header)
	s.Require().Equal("0xmock_1_1001", header.Hash)

	header, err = s.repo.BlockHeaderByNumber(s.testCtx, 2, 1001)
	s.Require().NoError(err)
	s.Require().NotNil(header)
	s.Require().Equal("0xmock_2_1001", header.Hash)

	header, err = s.repo.BlockHeaderByNumber(s.testCtx, 3, 1001)
	s.Require().NoError(err)
	s.Require().Nil(header)
}

func (s *RepositorySuite) TestPing() {
	s.Require().NoError(s.repo.Ping(s.testCtx))
}
